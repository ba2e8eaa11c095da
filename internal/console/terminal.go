package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"PocketCalc/internal/rates"
)

// Sender prints a line to the user.
type Sender interface {
	Send(text string) error
}

// commandPrefix starts a command in both input modes.
const commandPrefix = ':'

// RunLines reads r line by line until EOF or ctx is cancelled. Lines starting
// with ':' are commands; other lines are typed key by key and the resulting
// display is printed.
func (c *Console) RunLines(ctx context.Context, r io.Reader, out Sender) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var reply string
		if line[0] == commandPrefix {
			cmd := strings.TrimSpace(line[1:])
			if cmd == "q" || cmd == "quit" {
				return nil
			}
			reply = c.HandleCommand(cmd)
		} else {
			for _, r := range line {
				reply = c.HandleKey(r)
			}
		}
		if reply != "" {
			if err := out.Send(reply); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}

// StatusSender prints rate refresh outcomes as well as plain lines.
type StatusSender interface {
	Sender
	Notify(o rates.Outcome) error
}

// RunRaw puts the terminal f in raw mode and handles single keystrokes until
// Ctrl+C, Ctrl+D, 'q' or ctx cancellation. Refresh outcomes from outcomes are
// printed between keystrokes so they never split the display line. The
// terminal state is restored on return.
func (c *Console) RunRaw(ctx context.Context, f *os.File, out io.Writer, notify StatusSender, outcomes <-chan rates.Outcome) error {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	done := make(chan struct{})
	defer close(done)

	keys := make(chan rune)
	errc := make(chan error, 1)
	go readKeys(f, keys, errc, done)

	return c.rawLoop(ctx, keys, errc, out, notify, outcomes)
}

// readKeys forwards runes from r until a read fails or done is closed.
// errc must have room for one error.
func readKeys(r io.Reader, keys chan<- rune, errc chan<- error, done <-chan struct{}) {
	br := bufio.NewReader(r)
	for {
		k, _, err := br.ReadRune()
		if err != nil {
			errc <- err
			return
		}
		select {
		case keys <- k:
		case <-done:
			return
		}
	}
}

func (c *Console) rawLoop(ctx context.Context, keys <-chan rune, errc <-chan error, out io.Writer, notify StatusSender, outcomes <-chan rates.Outcome) error {
	var cmd strings.Builder
	inCommand := false

	redraw := func() {
		text := c.Screen()
		if inCommand {
			text = string(commandPrefix) + cmd.String()
		}
		fmt.Fprintf(out, "\r\033[K%s", text)
	}
	redraw()

	for {
		var r rune
		select {
		case <-ctx.Done():
			fmt.Fprint(out, "\r\n")
			return nil
		case err := <-errc:
			fmt.Fprint(out, "\r\n")
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			fmt.Fprint(out, "\r\033[K")
			notify.Notify(o)
			if reply := c.OnRatesUpdated(o); reply != "" {
				notify.Send(reply)
			}
			redraw()
			continue
		case r = <-keys:
		}

		switch {
		case r == 0x03 || r == 0x04:
			fmt.Fprint(out, "\r\n")
			return nil
		case inCommand:
			switch r {
			case '\r', '\n':
				inCommand = false
				fmt.Fprint(out, "\r\n")
				if reply := c.HandleCommand(cmd.String()); reply != "" {
					notify.Send(strings.ReplaceAll(reply, "\n", "\r\n"))
				}
				cmd.Reset()
			case 0x1b:
				inCommand = false
				cmd.Reset()
			case 0x7f, 0x08:
				if rs := []rune(cmd.String()); len(rs) > 0 {
					cmd.Reset()
					cmd.WriteString(string(rs[:len(rs)-1]))
				}
			default:
				cmd.WriteRune(r)
			}
		case r == commandPrefix:
			inCommand = true
		case r == 'q':
			fmt.Fprint(out, "\r\n")
			return nil
		default:
			c.HandleKey(r)
		}
		redraw()
	}
}
