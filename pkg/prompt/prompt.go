// Package prompt asks the user for session values that were not configured
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
)

// Prompter reads answers from a terminal or, when input is not a terminal,
// from plain lines of input
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// New creates a prompter reading from in and writing questions to out
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Line asks for a visible value. An empty answer yields def.
func (p *Prompter) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Password asks for a secret. Input is not echoed on a terminal.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	if !p.tty {
		return p.readLine()
	}

	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no answer: input closed")
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Complete asks for the service URL, username and password when s lacks them
func (p *Prompter) Complete(s *config.Session) error {
	var err error
	if s.URL == "" {
		if s.URL, err = p.Line("Mapping service URL", "http://localhost:6969"); err != nil {
			return err
		}
	}
	if s.Username == "" {
		if s.Username, err = p.Line("Username", ""); err != nil {
			return err
		}
	}
	if s.Password == "" {
		if s.Password, err = p.Password(fmt.Sprintf("Password for %s", s.Username)); err != nil {
			return err
		}
	}
	return nil
}
