// Package sh provides an interactive shell talking to a display.
package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nextion.go/pkg/nextion"
	"github.com/robotalks/nextion.go/pkg/nextion/trigger"
	"github.com/robotalks/nextion.go/pkg/transport/serial"
)

// DefaultListenInterval is the period of the background listener.
const DefaultListenInterval = 20 * time.Millisecond

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive    bool
	ListenInterval time.Duration

	Shell *ishell.Shell
	Nex   *nextion.Nex
	Mux   *trigger.Mux

	// lock serializes commands and the background listener, the
	// display stream must have a single consumer.
	lock sync.Mutex
	out  io.Writer
}

const (
	shellKey = "$shell"
	prompt   = "nextion > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&NumCmd,
		&StrCmd,
		&RawCmd,
		&GetNumCmd,
		&GetStrCmd,
		&PageCmd,
		&FlushCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell on the display. Events are printed as they
// are received by the background listener.
func New(nex *nextion.Nex) *Shell {
	s := &Shell{
		Interactive:    !evalOnly,
		ListenInterval: DefaultListenInterval,
		Shell:          ishell.New(),
		Nex:            nex,
		Mux:            trigger.NewMux(),
	}
	s.routeEvents()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

func (s *Shell) routeEvents() {
	s.Mux.OnPage(func(page byte) {
		s.printf("event: page %d\n", page)
	})
	s.Mux.OnAnyTrigger(func(id byte) {
		s.printf("event: trigger %#02x\n", id)
	})
	s.Mux.Default = nextion.RouteFunc(func(group byte, remaining int, src io.ByteReader) {
		s.printf("event: group %q, %d bytes\n", group, remaining)
		nextion.Discard(src, remaining)
	})
	s.Nex.Router = s.Mux
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func (s *Shell) printf(format string, args ...interface{}) {
	if s.out != nil {
		fmt.Fprintf(s.out, format, args...)
		return
	}
	s.Shell.Printf(format, args...)
}

// Do runs fn with exclusive access to the display.
func (s *Shell) Do(fn func(*nextion.Nex)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(s.Nex)
}

// Listen dispatches events until ctx is done.
func (s *Shell) Listen(ctx context.Context) {
	interval := s.ListenInterval
	if interval <= 0 {
		interval = DefaultListenInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Do(func(n *nextion.Nex) {
				for n.Listen() {
				}
			})
		}
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if !s.Interactive {
		return fmt.Errorf("command expected")
	}
	s.Shell.Run()
	return nil
}

// Exec runs a command with arguments and returns its output.
type Exec func(s *Shell, args []string) (string, error)

// Command wraps an Exec into an ishell command func.
func Command(fn Exec) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		out, err := fn(ShellFrom(c), c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		if out != "" {
			c.Println(out)
		}
	}
}

func requireArgs(args []string, count int, usage string) error {
	if len(args) < count {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func execNum(s *Shell, args []string) (string, error) {
	if err := requireArgs(args, 2, "num REF VALUE"); err != nil {
		return "", err
	}
	val, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return "", fmt.Errorf("invalid VALUE: %w", err)
	}
	s.Do(func(n *nextion.Nex) { n.WriteNum(args[0], uint32(val)) })
	return "", nil
}

func execStr(s *Shell, args []string) (string, error) {
	if err := requireArgs(args, 1, "str REF [TEXT...]"); err != nil {
		return "", err
	}
	text := strings.Join(args[1:], " ")
	s.Do(func(n *nextion.Nex) { n.WriteStr(args[0], text) })
	return "", nil
}

func execRaw(s *Shell, args []string) (string, error) {
	if err := requireArgs(args, 1, "cmd TEXT..."); err != nil {
		return "", err
	}
	text := strings.Join(args, " ")
	s.Do(func(n *nextion.Nex) { n.WriteCmd(text) })
	return "", nil
}

func execGetNum(s *Shell, args []string) (out string, err error) {
	if err = requireArgs(args, 1, "getnum REF"); err != nil {
		return
	}
	s.Do(func(n *nextion.Nex) {
		var val uint32
		if val, err = n.QueryNumber(args[0]); err == nil {
			out = strconv.FormatUint(uint64(val), 10)
		}
	})
	return
}

func execGetStr(s *Shell, args []string) (out string, err error) {
	if err = requireArgs(args, 1, "getstr REF"); err != nil {
		return
	}
	s.Do(func(n *nextion.Nex) {
		var val string
		if val, err = n.QueryText(args[0]); err == nil {
			out = strconv.Quote(val)
		}
	})
	return
}

func execPage(s *Shell, args []string) (string, error) {
	if len(args) > 0 {
		if _, err := strconv.ParseUint(args[0], 10, 8); err != nil {
			return "", fmt.Errorf("invalid PAGE: %w", err)
		}
		s.Do(func(n *nextion.Nex) { n.WriteCmd("page " + args[0]) })
		return "", nil
	}
	return fmt.Sprintf("current %d, last %d", s.Mux.CurrentPage(), s.Mux.LastPage()), nil
}

func execFlush(s *Shell, args []string) (string, error) {
	var count int
	s.Do(func(n *nextion.Nex) { count = n.Flush() })
	return fmt.Sprintf("%d bytes discarded", count), nil
}

func execPorts(s *Shell, args []string) (string, error) {
	ports, err := serial.Ports()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "No serial ports found", nil
	}
	return strings.Join(ports, "\n"), nil
}

var (
	// NumCmd assigns a numeric attribute.
	NumCmd = ishell.Cmd{
		Name:    "num",
		Aliases: []string{"n"},
		Help:    "REF VALUE",
		Func:    Command(execNum),
	}

	// StrCmd assigns a text attribute.
	StrCmd = ishell.Cmd{
		Name:    "str",
		Aliases: []string{"s"},
		Help:    "REF [TEXT...]",
		Func:    Command(execStr),
	}

	// RawCmd sends an instruction as is.
	RawCmd = ishell.Cmd{
		Name:    "cmd",
		Aliases: []string{"c"},
		Help:    "TEXT...",
		Func:    Command(execRaw),
	}

	// GetNumCmd reads a numeric attribute.
	GetNumCmd = ishell.Cmd{
		Name:    "getnum",
		Aliases: []string{"gn"},
		Help:    "REF",
		Func:    Command(execGetNum),
	}

	// GetStrCmd reads a text attribute.
	GetStrCmd = ishell.Cmd{
		Name:    "getstr",
		Aliases: []string{"gs"},
		Help:    "REF",
		Func:    Command(execGetStr),
	}

	// PageCmd shows the page tracked from events, or switches page.
	PageCmd = ishell.Cmd{
		Name:    "page",
		Aliases: []string{"p"},
		Help:    "[PAGE]",
		Func:    Command(execPage),
	}

	// FlushCmd discards pending input.
	FlushCmd = ishell.Cmd{
		Name: "flush",
		Help: "",
		Func: Command(execFlush),
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: Command(execPorts),
	}
)
