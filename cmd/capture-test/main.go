package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/camera"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

// Exercises the capture path end to end against the simulated camera.

func main() {
	exposure := flag.Int("e", 100, "exposure time (ms)")
	out := flag.String("o", "frame.raw", "output file for the raw frame")
	latency := flag.Duration("latency", 30*time.Millisecond, "simulated transport latency")
	silent := flag.Bool("silent", false, "simulate a camera that never delivers (timeout path)")
	flag.Parse()

	opts := []xdtusb.SimOption{xdtusb.WithLatency(*latency)}
	if *silent {
		opts = append(opts, xdtusb.WithSilent())
	}
	sdk := xdtusb.NewSim(xdtusb.NewSimDevice(opts...))

	sess, err := camera.Open(sdk)
	if err != nil {
		log.Fatalln(err)
	}
	coord := camera.NewCoordinator(sess)
	defer coord.Shutdown()

	start := time.Now()
	view, err := coord.Capture(*exposure)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("captured %d*%d, %d bytes, generation %d in %s",
		view.Width, view.Height, view.ValidLength, view.Generation, time.Since(start))

	if err := os.WriteFile(*out, view.Bytes, 0660); err != nil {
		log.Fatalln(err)
	}
	log.Printf("wrote %s", *out)
}
