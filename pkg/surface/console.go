package surface

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console is an operator on a pair of streams, usually stdin and stdout.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns a Console reading answers from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Show writes a formatted message without adding a newline.
func (c *Console) Show(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Answer reads one line. A final unterminated line is returned before
// io.EOF is reported.
func (c *Console) Answer() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
