// Package console is the terminal side of the update command.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console writes plain lines to out and reads answers from in.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func New(in io.Reader, out, errOut io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out, err: errOut}
}

func (c *Console) Info(msg string) { fmt.Fprintln(c.out, msg) }

func (c *Console) Error(msg string) { fmt.Fprintln(c.err, msg) }

func (c *Console) Line() { fmt.Fprintln(c.out) }

// Confirm asks a yes/no question. Anything other than y or yes, including
// end of input, is a no.
func (c *Console) Confirm(question string) bool {
	fmt.Fprintf(c.out, "%s (yes/no) [no]:\n> ", question)
	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
