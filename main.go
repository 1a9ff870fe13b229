// Command nesproject runs a cartridge in a window and serves the remote
// control API on the side.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Overflow0xFFFF/nesproject/apu"
	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/console"
	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/display"
	"github.com/Overflow0xFFFF/nesproject/savefile"
	"github.com/Overflow0xFFFF/nesproject/server"
	"github.com/Overflow0xFFFF/nesproject/statsview"
	"github.com/Overflow0xFFFF/nesproject/wavwriter"
)

func main() {
	romPath := flag.String("rom", "", "Path to an iNES ROM; pick one from the menu if empty")
	port := flag.Int("port", 50051, "Port for the gRPC remote control server")
	recordPath := flag.String("record", "", "Record player one's input to a script file")
	wavPath := flag.String("wav", "", "Capture audio to a WAV file")
	scale := flag.Int("scale", 3, "Window zoom factor")
	sampleRate := flag.Int("samplerate", apu.DefaultSampleRate, "Audio sample rate in Hz")
	trace := flag.Bool("trace", false, "Log every instruction (with -v=2)")
	statsAddr := flag.String("statsview", "", "Serve runtime charts on this address, e.g. localhost:18066")
	flag.Parse()
	defer glog.Flush()

	if *statsAddr != "" {
		statsview.Launch(*statsAddr)
	}

	c := console.New(console.Options{SampleRate: *sampleRate, Trace: *trace})
	if *romPath != "" {
		img, err := cartridge.Load(*romPath)
		if err != nil {
			glog.Exitf("Error loading ROM: %v", err)
		}
		if err := c.Insert(img); err != nil {
			glog.Exitf("Error inserting ROM: %v", err)
		}
		if err := savefile.LoadBattery(c, savefile.BatteryPath(*romPath)); err != nil {
			glog.Errorf("Error loading battery RAM: %v", err)
		}
	}

	m := server.NewMachine(c)
	srv := server.NewGRPCServer(m)
	if err := srv.Start(*port); err != nil {
		glog.Exitf("Error starting gRPC server: %v", err)
	}
	defer srv.Stop()

	opts := display.Options{Scale: *scale, ROMPath: *romPath}
	if *recordPath != "" {
		f, err := os.Create(*recordPath)
		if err != nil {
			glog.Exitf("Error creating record file: %v", err)
		}
		defer f.Close()
		opts.Recorder = controller.NewRecorder(f)
		glog.Infof("Recording input to %s", *recordPath)
	}
	if *wavPath != "" {
		w, err := wavwriter.New(*wavPath, c.SampleRate())
		if err != nil {
			glog.Exitf("Error creating WAV file: %v", err)
		}
		opts.Wav = w
	}

	d := display.New(m, opts)
	w, h := d.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("nesproject")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(d); err != nil {
		glog.Errorf("Display error: %v", err)
	}
	if err := d.Close(); err != nil {
		glog.Errorf("Error during shutdown: %v", err)
	}
}
