// Package decoder provides shell commands driving an offline decoder.
package decoder

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sent.go/pkg/cli/sh"
	"github.com/robotalks/sent.go/pkg/sent"
)

// DefaultTickPerUnit is the clocks per tick of simulated frames.
const DefaultTickPerUnit = 30

func parseUint(arg, name string, bits int) (uint64, error) {
	val, err := strconv.ParseUint(arg, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %v", name, err)
	}
	return val, nil
}

func optionalUint(args []string, index int, name string, bits int, def uint64) (uint64, error) {
	if len(args) <= index {
		return def, nil
	}
	return parseUint(args[index], name, bits)
}

// SimulateFrames builds frames from STATUS A B [TICK] [COUNT] arguments.
func SimulateFrames(args []string) (tickPerUnit uint32, frames []sent.Frame, err error) {
	if len(args) < 3 {
		return 0, nil, fmt.Errorf("STATUS A B required")
	}
	var sig sent.Signals
	status, err := parseUint(args[0], "STATUS", 4)
	if err != nil {
		return 0, nil, err
	}
	a, err := parseUint(args[1], "A", 12)
	if err != nil {
		return 0, nil, err
	}
	b, err := parseUint(args[2], "B", 12)
	if err != nil {
		return 0, nil, err
	}
	sig.Status, sig.A, sig.B = uint8(status), uint16(a), uint16(b)
	tick, err := optionalUint(args, 3, "TICK", 32, DefaultTickPerUnit)
	if err != nil {
		return 0, nil, err
	}
	if tick == 0 {
		return 0, nil, fmt.Errorf("Invalid TICK: must be positive")
	}
	count, err := optionalUint(args, 4, "COUNT", 16, 1)
	if err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, fmt.Errorf("Invalid COUNT: must be positive")
	}
	f := sent.EncodeSignals(sig, sent.CRCFullMessage)
	frames = make([]sent.Frame, count)
	for i := range frames {
		frames[i] = f
	}
	return uint32(tick), frames, nil
}

// SlowMessageFrames builds the frames of a slow channel message from
// short|enhanced ID VALUE [TICK] arguments. Enhanced messages use the
// 16-bit format only when VALUE does not fit 12 bits.
func SlowMessageFrames(args []string) (tickPerUnit uint32, frames []sent.Frame, err error) {
	if len(args) < 3 {
		return 0, nil, fmt.Errorf("short|enhanced ID VALUE required")
	}
	tick, err := optionalUint(args, 3, "TICK", 32, DefaultTickPerUnit)
	if err != nil {
		return 0, nil, err
	}
	if tick == 0 {
		return 0, nil, fmt.Errorf("Invalid TICK: must be positive")
	}
	var status []uint8
	switch args[0] {
	case "short", "s":
		id, err := parseUint(args[1], "ID", 4)
		if err != nil {
			return 0, nil, err
		}
		value, err := parseUint(args[2], "VALUE", 8)
		if err != nil {
			return 0, nil, err
		}
		msg := sent.ShortSerialMessage(uint8(id), uint8(value))
		status = msg[:]
	case "enhanced", "e":
		value, err := parseUint(args[2], "VALUE", 16)
		if err != nil {
			return 0, nil, err
		}
		sixteenBit := value > 0xfff
		idBits := 8
		if sixteenBit {
			idBits = 4
		}
		id, err := parseUint(args[1], "ID", idBits)
		if err != nil {
			return 0, nil, err
		}
		msg := sent.EnhancedSerialMessage(uint8(id), uint16(value), sixteenBit)
		status = msg[:]
	default:
		return 0, nil, fmt.Errorf("unknown message format %q", args[0])
	}
	for _, st := range status {
		frames = append(frames, sent.EncodeSignals(sent.Signals{Status: st}, sent.CRCFullMessage))
	}
	return uint32(tick), frames, nil
}

func formatStats(stats sent.Statistics) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "frames:             %d\n", stats.Frames)
	fmt.Fprintf(&w, "pauses:             %d\n", stats.Pauses)
	fmt.Fprintf(&w, "restarts:           %d\n", stats.Restarts)
	fmt.Fprintf(&w, "hw overflow:        %d\n", stats.HWOverflow)
	fmt.Fprintf(&w, "short interval err: %d\n", stats.ShortIntervalErr)
	fmt.Fprintf(&w, "long interval err:  %d\n", stats.LongIntervalErr)
	fmt.Fprintf(&w, "sync err:           %d\n", stats.SyncErr)
	fmt.Fprintf(&w, "crc err:            %d\n", stats.CRCErr)
	fmt.Fprintf(&w, "slow 12-bit:        %d\n", stats.SlowChannel12)
	fmt.Fprintf(&w, "slow 16-bit:        %d\n", stats.SlowChannel16)
	fmt.Fprintf(&w, "slow crc err:       %d\n", stats.SlowCRCErr)
	fmt.Fprintf(&w, "slow table full:    %d\n", stats.SlowTableFull)
	fmt.Fprintf(&w, "total errors:       %d\n", stats.TotalErrors())
	fmt.Fprintf(&w, "error rate:         %.4f%%", stats.ErrorRate()*100)
	return w.String()
}

type statsOutput struct {
	sent.Statistics
	TotalErrors uint32  `json:"total_errors"`
	ErrorRate   float64 `json:"error_rate"`
}

var (
	// LoadCmd loads a capture.
	LoadCmd = ishell.Cmd{
		Name:    "load",
		Aliases: []string{"l"},
		Help:    "FILE|URL",
		Func: sh.MustHaveArgs(1, "load FILE|URL", func(c *ishell.Context) {
			n, err := sh.SessionFrom(c).Load(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, sh.SessionFrom(c).Info(), fmt.Sprintf("loaded %d samples", n))
		}),
	}

	// FeedCmd feeds samples into the decoder.
	FeedCmd = ishell.Cmd{
		Name:    "feed",
		Aliases: []string{"f"},
		Help:    "[N]",
		Func: func(c *ishell.Context) {
			n, err := optionalUint(c.Args, 0, "N", 31, 1)
			if err != nil {
				c.Err(err)
				return
			}
			printFeed(c, sh.SessionFrom(c).Feed(int(n)))
		},
	}

	// RunCmd feeds all remaining samples.
	RunCmd = ishell.Cmd{
		Name: "run",
		Help: "",
		Func: func(c *ishell.Context) {
			printFeed(c, sh.SessionFrom(c).Feed(-1))
		},
	}

	// SimulateCmd queues encoded frames.
	SimulateCmd = ishell.Cmd{
		Name:    "simulate",
		Aliases: []string{"sim"},
		Help:    "STATUS A B [TICK] [COUNT]",
		Func: func(c *ishell.Context) {
			tick, frames, err := SimulateFrames(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.SessionFrom(c)
			s.AppendFrames(tick, frames...)
			sh.Output(c, s.Info(), fmt.Sprintf("queued %d frames %s", len(frames), frames[0]))
		},
	}

	// SlowMsgCmd queues the frames of a slow channel message.
	SlowMsgCmd = ishell.Cmd{
		Name:    "slowmsg",
		Aliases: []string{"sm"},
		Help:    "short|enhanced ID VALUE [TICK]",
		Func: func(c *ishell.Context) {
			tick, frames, err := SlowMessageFrames(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.SessionFrom(c)
			s.AppendFrames(tick, frames...)
			sh.Output(c, s.Info(), fmt.Sprintf("queued %d frames", len(frames)))
		},
	}

	// StateCmd prints the decoder state.
	StateCmd = ishell.Cmd{
		Name: "state",
		Help: "",
		Func: func(c *ishell.Context) {
			stream := sh.SessionFrom(c).Stream
			state, tick := stream.State(), stream.TickPerUnit()
			sh.Output(c, map[string]interface{}{
				"state":         state,
				"tick_per_unit": tick,
				"synced":        state.IsSynced(),
			}, fmt.Sprintf("%s tick=%d synced=%v", state, tick, state.IsSynced()))
		},
	}

	// FrameCmd prints the last valid frame.
	FrameCmd = ishell.Cmd{
		Name: "frame",
		Help: "",
		Func: func(c *ishell.Context) {
			snap := sh.SessionFrom(c).Stream.Snapshot()
			if !snap.Valid {
				c.Err(fmt.Errorf("no valid frame"))
				return
			}
			sh.Output(c, map[string]interface{}{"frame": uint32(snap.Frame)}, snap.Frame.String())
		},
	}

	// SignalsCmd prints the signals of the last valid frame.
	SignalsCmd = ishell.Cmd{
		Name:    "signals",
		Aliases: []string{"sig"},
		Help:    "",
		Func: func(c *ishell.Context) {
			snap := sh.SessionFrom(c).Stream.Snapshot()
			if !snap.Valid {
				c.Err(fmt.Errorf("no valid frame"))
				return
			}
			sig := snap.Signals
			sh.Output(c, sig, fmt.Sprintf("status=%x a=%d (0x%03x) b=%d (0x%03x)", sig.Status, sig.A, sig.A, sig.B, sig.B))
		},
	}

	// SlowCmd prints slow channel values.
	SlowCmd = ishell.Cmd{
		Name: "slow",
		Help: "[ID]",
		Func: func(c *ishell.Context) {
			s := sh.SessionFrom(c)
			if len(c.Args) > 0 {
				id, err := parseUint(c.Args[0], "ID", 8)
				if err != nil {
					c.Err(err)
					return
				}
				value, ok := s.Stream.SlowChannelValue(uint8(id))
				if !ok {
					c.Err(fmt.Errorf("no value for id %d", id))
					return
				}
				sh.Output(c, map[string]uint16{"id": uint16(id), "value": value},
					fmt.Sprintf("%02x: %d (0x%x)", id, value, value))
				return
			}
			values := s.Stream.Snapshot().Slow
			var w bytes.Buffer
			for n, v := range values {
				if n > 0 {
					w.WriteByte('\n')
				}
				fmt.Fprintf(&w, "%02x: %d (0x%x)", v.ID, v.Value, v.Value)
			}
			if len(values) == 0 {
				w.WriteString("no slow channel values")
			}
			sh.Output(c, values, w.String())
		},
	}

	// StatsCmd prints the decoder statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			stats := sh.SessionFrom(c).Stream.Snapshot().Stats
			sh.Output(c, statsOutput{
				Statistics:  stats,
				TotalErrors: stats.TotalErrors(),
				ErrorRate:   stats.ErrorRate(),
			}, formatStats(stats))
		},
	}

	// InfoCmd prints the loaded capture.
	InfoCmd = ishell.Cmd{
		Name: "info",
		Help: "",
		Func: func(c *ishell.Context) {
			info := sh.SessionFrom(c).Info()
			src := info.Source
			if src == "" {
				src = "(none)"
			}
			sh.Output(c, info, fmt.Sprintf("source=%s samples=%d position=%d remaining=%d",
				src, info.Samples, info.Position, info.Remaining))
		},
	}

	// ResetCmd resets the decoder, "rewind" also moves back to the first sample.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "[rewind]",
		Func: func(c *ishell.Context) {
			s := sh.SessionFrom(c)
			s.Stream.Reset()
			if len(c.Args) > 0 && c.Args[0] == "rewind" {
				s.Rewind()
			}
			sh.Output(c, s.Info(), "OK")
		},
	}
)

func printFeed(c *ishell.Context, r sh.FeedResult) {
	sh.Output(c, r, fmt.Sprintf("samples=%d frames=%d errors=%d", r.Samples, r.Frames, r.Errors))
}

func init() {
	sh.AddCmds(
		&LoadCmd,
		&FeedCmd,
		&RunCmd,
		&SimulateCmd,
		&SlowMsgCmd,
		&StateCmd,
		&FrameCmd,
		&SignalsCmd,
		&SlowCmd,
		&StatsCmd,
		&InfoCmd,
		&ResetCmd,
	)
}
