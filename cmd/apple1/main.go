package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/urfave/cli.v2"

	"retro6502/config"
	"retro6502/cpu"
	"retro6502/debugger"
	"retro6502/mem"
	"retro6502/peripheral"
	"retro6502/pia"
	"retro6502/scheduler"
)

// piaStart is where the Apple-1's PIA is mapped; the device answers
// across a 2 KB window starting there.
const piaStart = 0xd010

// busyFor models the original ~60 characters-per-second serial link.
const busyFor = time.Second / 60

func main() {
	app := &cli.App{
		Name:    "apple1",
		Usage:   "run the Apple-1 core: 6502 + memory bus + PIA + peripherals",
		Version: "v0.0.1",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ram", Usage: "RAM size in kilobytes (power of two)", Value: 64},
			&cli.IntFlag{Name: "himem", Usage: "disjoint high-RAM window base address (0 disables)"},
			&cli.StringSliceFlag{Name: "rom", Usage: "ROM file to load, as path@addr (addr in hex, e.g. rom.bin@0xff00)"},
			&cli.StringSliceFlag{Name: "preload", Usage: "RAM file to load, as path@addr"},
			&cli.IntFlag{Name: "telnet-port", Usage: "TCP port serving remote keyboard/terminal access", Value: 2121},
			&cli.BoolFlag{Name: "debug", Usage: "drop into the interactive single-step debugger instead of running free"},
		},
		Action: run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFileLoads(entries []string) ([]config.FileLoad, error) {
	loads := make([]config.FileLoad, 0, len(entries))
	for _, e := range entries {
		path, addrStr, ok := strings.Cut(e, "@")
		if !ok {
			return nil, fmt.Errorf("invalid load spec %q: want path@addr", e)
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid address in load spec %q: %w", e, err)
		}
		loads = append(loads, config.FileLoad{Path: path, Addr: uint16(addr)})
	}
	return loads, nil
}

func run(c *cli.Context) error {
	roms, err := parseFileLoads(c.StringSlice("rom"))
	if err != nil {
		return err
	}
	preloads, err := parseFileLoads(c.StringSlice("preload"))
	if err != nil {
		return err
	}

	cfg := config.Config{
		RAMKB:      uint16(c.Int("ram")),
		Himem:      uint16(c.Int("himem")),
		ROMs:       roms,
		Preloads:   preloads,
		TelnetPort: c.Int("telnet-port"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	bus, err := mem.NewBus(cfg.RAMKB, cfg.Himem)
	if err != nil {
		return err
	}
	for _, r := range cfg.ROMs {
		if _, err := bus.LoadROM(r.Addr, r.Path); err != nil {
			return err
		}
	}
	for _, p := range cfg.Preloads {
		if err := bus.LoadRAM(p.Addr, p.Path); err != nil {
			return err
		}
	}

	keyboard := peripheral.NewKeyboard()
	terminal := peripheral.NewTerminal(peripheral.GetDisplay(peripheral.DisplayWhite), busyFor)
	bus.RegisterDevice(pia.New(piaStart, keyboard, terminal))

	network := peripheral.NewNetworkListener(keyboard, terminal, fmt.Sprintf(":%d", cfg.TelnetPort))

	machine := cpu.New(bus)

	if c.Bool("debug") {
		if err := network.Start(); err != nil {
			return err
		}
		defer network.Stop()
		machine.Reset()
		if err := machine.Step(); err != nil { // services RESET
			return err
		}
		return debugger.Run(machine)
	}

	sched := scheduler.New(machine, network)
	machine.Reset()
	if err := sched.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sched.Stop()
	return nil
}
