package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midi-lamps/config"
	"midi-lamps/control"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	prefix := "CASIO"
	if len(os.Args) > 2 {
		prefix = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "poll":
		pollDevices(prefix)
	case "dump":
		dumpMessages(prefix)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list           - List all MIDI ports")
	fmt.Println("  poll [prefix]  - Poll for device changes")
	fmt.Println("  dump [prefix]  - Print messages and the lamp commands they would send")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! MIDI enumeration is hung.")
	}
}

func findIn(prefix string) drivers.In {
	for _, p := range midi.GetInPorts() {
		if strings.HasPrefix(p.String(), prefix) {
			return p
		}
	}
	return nil
}

func pollDevices(prefix string) {
	fmt.Println("Polling for device changes every second...")
	fmt.Printf("Connect/disconnect a %s keyboard to test. Ctrl+C to exit.\n", prefix)

	last := ""
	for {
		var names []string
		for _, p := range midi.GetInPorts() {
			names = append(names, p.String())
		}

		current := strings.Join(names, ",")
		if current != last {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", names)

			if in := findIn(prefix); in != nil {
				fmt.Printf("  -> would attach %d: %s\n", in.Number(), in.String())
			}
			last = current
		}

		time.Sleep(time.Second)
	}
}

func dumpMessages(prefix string) {
	in := findIn(prefix)
	if in == nil {
		fmt.Printf("No input starting with %q\n", prefix)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Printf("Listening on %s. Nothing is sent to the lamps. Ctrl+C to exit.\n", in.String())

	// one listener goroutine touches the state
	state := &control.State{}
	translator := control.NewTranslator(cfg.LampMap(), func(s control.Snapshot) {
		fmt.Printf("  state: bank %d program %d mode %s\n", s.State.Bank, s.State.Program, s.Mode)
	})

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		fmt.Printf("[%6d] % X  %s\n", timestampms, msg.Bytes(), msg)
		cmd, ok, err := translator.Handle(state, msg)
		switch {
		case err != nil:
			fmt.Printf("  error: %v\n", err)
		case ok && cmd.IsHeartbeat():
			fmt.Println("  -> ping")
		case ok:
			fmt.Printf("  -> %s\n", cmd.Payload)
		}
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	fmt.Println()
	midi.CloseDriver()
}
