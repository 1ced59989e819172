// Command plcsim runs the FX3U-class ladder-logic simulator: a cooperative
// scan loop, a MODBUS-RTU slave fed from a single-writer request queue, and
// a single-byte CLI (s/t/d/r/?) whose commands the physical RUN switch
// dominates, per design note §9.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v2"

	"github.com/fx3usim/plcsim/ioport"
	"github.com/fx3usim/plcsim/modbus"
	"github.com/fx3usim/plcsim/scan"
	"github.com/fx3usim/plcsim/state"
)

func main() {
	app := &cli.App{
		Name:    "plcsim",
		Usage:   "FX3U-class ladder-logic PLC simulator",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "station-id",
				Usage: "MODBUS slave station id",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "scan-period",
				Usage: "nominal cyclic scan period",
				Value: 200 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:  "autostart",
				Usage: "start the scheduler immediately instead of waiting for 's' or the RUN switch",
			},
		},
		Action: run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "plcsim:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	stationID := byte(c.Int("station-id"))
	scanPeriod := c.Duration("scan-period")

	s := state.New()
	s.SetD8(state.D8121StationID, int16(stationID))
	sc := scan.New(s, scan.DefaultProgram())
	for reg, v := range scan.DefaultRegisters() {
		s.SetDIndex(reg, v)
	}

	io := newSimulatedIO()
	binding := ioport.New(io, io, io, io)
	clk := newSystemClock()

	if c.Bool("autostart") {
		sc.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// requestQueue is the single-writer queue design note §9 calls for:
	// MODBUS frames are only drained at the top of the scan loop, between
	// whole scans, never interleaved with instruction evaluation.
	requestQueue := make(chan []byte, 16)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rs485Reader(gctx, io, requestQueue)
	})
	g.Go(func() error {
		return scanLoop(gctx, sc, binding, clk, io, scanPeriod, requestQueue)
	})
	g.Go(func() error {
		return commandLoop(gctx, sc, io)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// rs485Reader polls the byte transport for complete frames and forwards
// them to requestQueue, decoupling frame arrival from frame processing.
func rs485Reader(ctx context.Context, io *simulatedIO, requestQueue chan<- []byte) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if frame := io.PollBytes(); frame != nil {
				select {
				case requestQueue <- frame:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// scanLoop is the cooperative main loop: drain any pending MODBUS request,
// then run one scan, then sleep until the next nominal period. Processing
// MODBUS only here — never inside RunCycle — is what gives the
// atomicity guarantee of spec.md §5 without locks.
func scanLoop(ctx context.Context, sc *scan.Scheduler, binding *ioport.Binding, clk *systemClock, io *simulatedIO, period time.Duration, requestQueue <-chan []byte) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		drainRequests:
			for {
				select {
				case frame := <-requestQueue:
					handleModbusFrame(sc, frame, io)
				default:
					break drainRequests
				}
			}

			if action := binding.PollRunSwitch(); action == 1 {
				sc.Start()
			} else if action == -1 {
				sc.Stop()
			} else if io.ReadRunSwitch() && sc.State().Run() == state.Stop {
				// While the switch is held closed it wins over a CLI
				// stop or reset: put the scheduler back into RUN.
				sc.Start()
			}

			sc.RunCycle(clk, binding)
		}
	}
}

func handleModbusFrame(sc *scan.Scheduler, frame []byte, io *simulatedIO) {
	req, ok := modbus.Parse(frame)
	if !ok {
		return // ModbusFrameCorrupt: silently dropped (spec.md §7)
	}
	resp := modbus.Dispatch(sc.State(), req)
	io.Send(resp)
}

// commandLoop implements the single-byte CLI: s=start, t=stop, d=dump,
// r=reset, ?=help. Per design note §9 these never override the RUN switch
// while it is closed; scanLoop checks the switch every cycle, ahead of the
// scan, and returns a stopped scheduler to RUN while the switch is held.
func commandLoop(ctx context.Context, sc *scan.Scheduler, io *simulatedIO) error {
	reader := bufio.NewReader(os.Stdin)
	printHelp()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			return nil // stdin closed; nothing left for this CLI to do
		}
		switch b {
		case 's':
			sc.Start()
			log.Println("PLC started")
		case 't':
			sc.Stop()
			log.Println("PLC stopped")
		case 'd':
			runDump(sc)
		case 'r':
			sc.Reset()
			log.Println("PLC reset")
		case '?':
			printHelp()
		}
	}
}

func printHelp() {
	fmt.Println("commands: s=start t=stop d=dump r=reset ?=help")
}
