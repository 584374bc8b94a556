// Package sh provides the interactive decoder shell.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Session *Session
}

const (
	shellKey = "$shell"
	prompt   = "sent > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:   ishell.New(),
		Session: NewSession(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SessionFrom gets the decoding Session from ishell context.
func SessionFrom(c *ishell.Context) *Session {
	return ShellFrom(c).Session
}

// Output prints v as JSON in JSON mode, or the text form otherwise.
func Output(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// MustHaveArgs wraps command func requires at least n arguments.
func MustHaveArgs(n int, usage string, fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < n {
			c.Err(fmt.Errorf("usage: %s", usage))
			return
		}
		fn(c)
	}
}

// SplitCommands splits command line arguments on ";" into commands.
func SplitCommands(args []string) [][]string {
	var cmds [][]string
	var cmd []string
	for _, arg := range args {
		if arg == ";" {
			if len(cmd) > 0 {
				cmds = append(cmds, cmd)
			}
			cmd = nil
			continue
		}
		cmd = append(cmd, arg)
	}
	if len(cmd) > 0 {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Run runs the commands in args, or the interactive shell if there is
// none. Commands are separated by ";".
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		for _, cmd := range SplitCommands(args) {
			if err := s.Shell.Process(cmd...); err != nil {
				log.Fatalln(err)
			}
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
