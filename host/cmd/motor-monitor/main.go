package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motorboard/host/monitor"
	"motorboard/host/serial"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	rawOut = flag.Bool("raw", false, "Print lines as received instead of decoded")
)

func main() {
	flag.Parse()

	fmt.Println("Motor Board Monitor")
	fmt.Println("===================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Opening %s at %d baud...\n", cfg.Device, cfg.Baud)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// Stale output from before we attached
	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// After the first signal, restore default handling so a second
	// Ctrl-C kills the process even if the port is wedged
	go func() {
		<-ctx.Done()
		stop()
	}()

	mon := monitor.New(func(ev monitor.Event, err error) {
		stamp := time.Now().Format("15:04:05.000")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", stamp, err)
			return
		}
		if *rawOut {
			fmt.Printf("%s %s\n", stamp, ev.Line())
			return
		}
		fmt.Printf("%s %s\n", stamp, monitor.Describe(ev))
	})

	// The port times out every ReadTimeout, so Run sees cancellation
	// within one timeout
	err = mon.Run(ctx, monitor.PollReader(ctx, port))
	port.Close()

	fmt.Println()
	fmt.Println(mon.Stats().Summary())

	if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
