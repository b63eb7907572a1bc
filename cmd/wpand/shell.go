package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/wpanstack/wpan-go/pkg/frame"
	"github.com/wpanstack/wpan-go/pkg/mac"
)

// sendTimeout bounds the wait for a busy transmit queue.
const sendTimeout = 2 * time.Second

// shell executes interactive commands against a daemon.
type shell struct {
	dm  *daemon
	out io.Writer
}

// runShell reads commands until quit, end of input or ctx ends. Delivered
// frames and log lines are routed through readline so they do not break
// the prompt.
func runShell(ctx context.Context, cancel context.CancelFunc, dm *daemon) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          dm.Device().Name() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("send"), readline.PcItem("ifaces"), readline.PcItem("stats"),
			readline.PcItem("channel"), readline.PcItem("up"), readline.PcItem("down"),
			readline.PcItem("help"), readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	dm.SetOutput(rl.Stdout())
	sh := &shell{dm: dm, out: rl.Stdout()}
	sh.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			cancel()
			return nil
		}
		if sh.execute(ctx, line) {
			fmt.Fprintln(sh.out, "Exiting...")
			cancel()
			return nil
		}
	}
}

// execute runs one command line and reports whether the shell should exit.
func (sh *shell) execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "send", "s":
		err = sh.cmdSend(ctx, args)
	case "ifaces", "i":
		sh.cmdIfaces()
	case "stats":
		sh.cmdStats()
	case "channel", "ch":
		err = sh.cmdChannel(args)
	case "up":
		err = sh.cmdUpDown(args, true)
	case "down":
		err = sh.cmdUpDown(args, false)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
	return false
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `
WPAN Commands:
  send <iface> <dst> <text>  - Send a data frame (dst: broadcast, SHORT, PAN/SHORT or PAN/xx:..:xx)
  ifaces                     - List interfaces
  stats                      - Show device and interface counters
  channel [page] [channel]   - Show or set the radio channel
  up <iface>                 - Open an interface
  down <iface>               - Close an interface
  help                       - Show this help
  quit                       - Exit`)
}

func (sh *shell) iface(name string) (*mac.Interface, error) {
	iface, ok := sh.dm.Device().Interface(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", mac.ErrNoSuchInterface, name)
	}
	return iface, nil
}

func (sh *shell) cmdSend(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: send <iface> <dst> <text>")
	}
	iface, err := sh.iface(args[0])
	if err != nil {
		return err
	}
	dst, err := parseDest(args[1], iface.PANID())
	if err != nil {
		return err
	}
	payload := []byte(strings.Join(args[2:], " "))
	f, err := iface.BuildDataFrame(dst, payload, true)
	if err != nil {
		return err
	}
	seq := f.Header.Seq
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := iface.Send(ctx, f); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "sent %d bytes seq %d to %v\n", len(payload), seq, dst)
	return nil
}

// parseDest parses a destination. Without a PAN part the address is on pan.
func parseDest(s string, pan frame.PANID) (frame.Addr, error) {
	if s == "broadcast" || s == "bcast" {
		return frame.NewShortAddr(pan, frame.BroadcastShortAddr), nil
	}
	addr := s
	if p, a, ok := strings.Cut(s, "/"); ok {
		v, err := parsePANID(p)
		if err != nil {
			return frame.Addr{}, err
		}
		pan, addr = v, a
	}
	if strings.Contains(addr, ":") {
		ext, err := frame.ParseExtendedAddr(addr)
		if err != nil {
			return frame.Addr{}, err
		}
		return frame.NewExtendedAddr(pan, ext), nil
	}
	short, err := parseShortAddr(addr)
	if err != nil {
		return frame.Addr{}, err
	}
	return frame.NewShortAddr(pan, short), nil
}

func (sh *shell) cmdIfaces() {
	for _, iface := range sh.dm.Device().Interfaces() {
		info := iface.Info()
		state := "down"
		if info.Running {
			state = "up"
		}
		fmt.Fprintf(sh.out, "%-8s %-7s %-4s", info.Name, info.Kind, state)
		if iface.Kind() == mac.KindWPAN {
			fmt.Fprintf(sh.out, " pan %v short %v ext %v", info.PANID, info.ShortAddr, info.ExtendedAddr)
			if info.Channel != mac.ChannelNone {
				fmt.Fprintf(sh.out, " page %d channel %d", info.Page, info.Channel)
			}
			if iface.Security() != nil {
				fmt.Fprint(sh.out, " secured")
			}
		}
		if info.QueueStopped {
			fmt.Fprint(sh.out, " (tx busy)")
		}
		fmt.Fprintln(sh.out)
	}
}

func (sh *shell) cmdStats() {
	st := sh.dm.Device().Stats()
	fmt.Fprintf(sh.out, "device %s: rx %d (crc %d, malformed %d, overflow %d, no iface %d, other host %d, security %d, not data %d)\n",
		sh.dm.Device().Name(), st.RxFrames, st.RxCRCErrors, st.RxMalformed, st.RxQueueOverflow,
		st.RxNoInterface, st.RxOtherHost, st.RxSecurityErrors, st.RxNotData)
	fmt.Fprintf(sh.out, "  tx %d (errors %d, unsupported channel %d, spurious done %d)\n",
		st.TxFrames, st.TxErrors, st.TxUnsupportedChannel, st.TxSpuriousDone)
	for _, iface := range sh.dm.Device().Interfaces() {
		is := iface.Stats()
		fmt.Fprintf(sh.out, "%-8s rx %d/%d bytes (dropped %d)  tx %d/%d bytes (dropped %d, errors %d)\n",
			iface.Name(), is.RxPackets, is.RxBytes, is.RxDropped, is.TxPackets, is.TxBytes, is.TxDropped, is.TxErrors)
	}
	if c := sh.dm.client; c != nil {
		fmt.Fprintf(sh.out, "hub %s: %v rtt %v\n", c.ID(), c.State(), c.RTT())
	}
}

func (sh *shell) cmdChannel(args []string) error {
	dev := sh.dm.Device()
	if len(args) == 0 {
		page, ch := dev.Channel()
		if ch == mac.ChannelNone {
			fmt.Fprintln(sh.out, "not tuned")
		} else {
			fmt.Fprintf(sh.out, "page %d channel %d\n", page, ch)
		}
		return nil
	}

	var page, ch uint64
	var err error
	if len(args) == 1 {
		ch, err = strconv.ParseUint(args[0], 10, 8)
	} else {
		page, err = strconv.ParseUint(args[0], 10, 8)
		if err == nil {
			ch, err = strconv.ParseUint(args[1], 10, 8)
		}
	}
	if err != nil {
		return errors.New("usage: channel [page] <channel>")
	}
	if err := dev.SetChannel(uint8(page), uint8(ch)); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "tuned to page %d channel %d\n", page, ch)
	return nil
}

func (sh *shell) cmdUpDown(args []string, up bool) error {
	if len(args) != 1 {
		return errors.New("usage: up|down <iface>")
	}
	iface, err := sh.iface(args[0])
	if err != nil {
		return err
	}
	if up {
		iface.Open()
	} else {
		iface.Close()
	}
	return nil
}
