// Command client replays a recorded input script against a running
// emulator over gRPC.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/server"
)

// frameDuration is one NTSC frame.
const frameDuration = time.Second * 1000 / 60098

func main() {
	scriptFile := flag.String("script", "", "Path to the recorded script file to replay")
	addr := flag.String("addr", "localhost:50051", "Emulator gRPC address")
	port := flag.Int("port", 0, "Controller port to drive (0 or 1)")
	delay := flag.Duration("delay", 2*time.Second, "Wait before starting the replay")
	flag.Parse()
	defer glog.Flush()

	if *scriptFile == "" {
		glog.Exit("Please provide a script file using -script <file.script>")
	}

	file, err := os.Open(*scriptFile)
	if err != nil {
		glog.Exitf("Failed to open script file: %v", err)
	}
	steps, err := controller.ReadScript(file)
	file.Close()
	if err != nil {
		glog.Exitf("Failed to parse %s: %v", *scriptFile, err)
	}

	glog.Infof("Connecting to emulator on %s...", *addr)
	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		glog.Exitf("failed to connect: %v", err)
	}
	defer conn.Close()

	stream, err := server.NewClient(conn).StreamInput(context.Background())
	if err != nil {
		glog.Exitf("failed to open stream: %v", err)
	}

	glog.Infof("Connected! Replaying %d steps from %s in %v...", len(steps), *scriptFile, *delay)
	time.Sleep(*delay)

	for _, step := range steps {
		if err := stream.Send(*port, step.Buttons); err != nil {
			glog.Exitf("failed to send state: %v", err)
		}
		time.Sleep(time.Duration(step.Frames) * frameDuration)
	}

	// Release everything before hanging up.
	if err := stream.Send(*port, controller.Buttons{}); err != nil {
		glog.Errorf("failed to release buttons: %v", err)
	}
	if err := stream.Close(); err != nil {
		glog.Errorf("failed to close stream: %v", err)
	}
	glog.Info("Replay complete. Disconnected.")
}
