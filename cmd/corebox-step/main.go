// Command corebox-step is a minimal headless host: it loads a BIOS image,
// constructs the kernel, and runs the step loop until interrupted. It
// exists to exercise the library end to end, not as a product in its own
// right. There is no GUI, no debugger, no cartridge loader here.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/station32/corebox/system"
)

func main() {
	biosPath := flag.String("bios", "", "path to the 512 KiB BIOS image")
	steps := flag.Int64("steps", 0, "number of instructions to execute (0 = run until interrupted)")
	flag.Parse()

	if *biosPath == "" {
		fmt.Fprintln(os.Stderr, "corebox-step: -bios is required")
		os.Exit(1)
	}

	bios, err := os.ReadFile(*biosPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebox-step: reading BIOS: %v\n", err)
		os.Exit(1)
	}

	sys, err := system.New(bios)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebox-step: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	sys.Reset()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		for err := range sys.SystemError {
			fmt.Fprintf(os.Stderr, "corebox-step: %v\n", err)
		}
	}()

	go func() {
		for ch := range sys.TTY {
			fmt.Printf("%c", ch)
		}
	}()

	var n int64
	for {
		select {
		case <-sig:
			return
		default:
		}

		sys.Step()
		n++
		if n%33868 == 0 { // fixed step interval standing in for one frame
			sys.VBlank()
		}
		if *steps > 0 && n >= *steps {
			return
		}
	}
}
