package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"PocketCalc/internal/rates"
)

// ConsoleNotifier prints status lines to a terminal.
type ConsoleNotifier struct {
	Out    io.Writer
	Logger *zap.Logger

	mu    sync.Mutex
	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
	plain *color.Color
}

// NewConsoleNotifier creates a notifier writing to out. Colors are disabled
// when noColor is set or stdout is not a terminal.
func NewConsoleNotifier(out io.Writer, logger *zap.Logger, noColor bool) *ConsoleNotifier {
	n := &ConsoleNotifier{
		Out:    out,
		Logger: logger,
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed),
		plain:  color.New(color.Reset),
	}
	if noColor {
		for _, c := range []*color.Color{n.ok, n.warn, n.fail, n.plain} {
			c.DisableColor()
		}
	}
	return n
}

// Send writes one message. The "\r\n" ending keeps raw-mode terminals aligned.
func (n *ConsoleNotifier) Send(text string) error {
	return n.write(n.plain, text)
}

// SendError writes a message in the failure color.
func (n *ConsoleNotifier) SendError(text string) error {
	return n.write(n.fail, text)
}

func (n *ConsoleNotifier) write(c *color.Color, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := c.Fprint(n.Out, text); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	_, err := io.WriteString(n.Out, "\r\n")
	return err
}

// Notify prints the status line for one refresh outcome.
func (n *ConsoleNotifier) Notify(o rates.Outcome) error {
	switch {
	case o.Live():
		return n.write(n.ok, FormatStatus(o))
	case o.Reason == rates.ReasonNetwork:
		return n.write(n.warn, FormatStatus(o))
	default:
		return n.SendError(FormatStatus(o))
	}
}

// OutcomeHandler is called after each outcome has been printed.
type OutcomeHandler func(o rates.Outcome) string

// Listen prints every outcome from ch until ctx is cancelled or ch closes.
// A non-empty reply from handler is printed after the status line.
func (n *ConsoleNotifier) Listen(ctx context.Context, ch <-chan rates.Outcome, handler OutcomeHandler) {
	for {
		select {
		case <-ctx.Done():
			n.Logger.Debug("console notifier stopped")
			return
		case o, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Notify(o); err != nil {
				n.Logger.Warn("print rate status failed", zap.Error(err))
				continue
			}
			if handler == nil {
				continue
			}
			if reply := handler(o); reply != "" {
				if err := n.Send(reply); err != nil {
					n.Logger.Warn("print reply failed", zap.Error(err))
				}
			}
		}
	}
}
