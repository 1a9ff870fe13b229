// Command vdb is a small remote debugger for a running emulator.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Overflow0xFFFF/nesproject/server"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "Emulator gRPC address")
	flag.Parse()
	defer glog.Flush()

	fmt.Println("VDB - NES remote debugger")
	fmt.Printf("Connecting to emulator on %s...\n", *addr)

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		glog.Exitf("did not connect: %v", err)
	}
	defer conn.Close()

	d := &debugger{client: server.NewClient(conn), out: os.Stdout}
	fmt.Println("Connected. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(vdb) ")
		if !scanner.Scan() {
			break
		}
		if d.exec(scanner.Text()) {
			return
		}
	}
}
