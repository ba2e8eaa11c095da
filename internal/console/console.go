package console

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"PocketCalc/internal/calculator"
	"PocketCalc/internal/history"
	"PocketCalc/internal/metrics"
	"PocketCalc/internal/model"
	"PocketCalc/internal/notifier"
	"PocketCalc/internal/rates"
	"PocketCalc/internal/recorder"
)

// Deps are the collaborators a Console drives.
type Deps struct {
	History     *history.Log
	HistoryFile string
	Updater     *rates.Updater
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics
	Logger      *zap.Logger

	From, To        model.Currency
	RefreshCooldown time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Console turns keystrokes and typed commands into calculator actions and
// returns the text to show. Key and command handling happen on one goroutine;
// OnRatesUpdated may run concurrently.
type Console struct {
	ctx  context.Context
	deps Deps

	mu          sync.Mutex
	session     calculator.Session
	from, to    model.Currency
	amount      string // explicit amount of the last conversion, "" = use display
	converted   bool
	lastRefresh time.Time
}

func New(ctx context.Context, d Deps) *Console {
	if d.History == nil {
		d.History = history.NewLog()
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.From == "" {
		d.From = model.RON
	}
	if d.To == "" {
		d.To = model.EUR
	}
	return &Console{
		ctx:     ctx,
		deps:    d,
		session: calculator.NewSession(),
		from:    d.From,
		to:      d.To,
	}
}

// Display returns the current calculator screen.
func (c *Console) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Display()
}

// Screen returns the display line, marking an unmodified result with "= ".
func (c *Console) Screen() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.JustEvaluated() {
		return "= " + c.session.Display()
	}
	return c.session.Display()
}

// Pair returns the selected conversion currencies.
func (c *Console) Pair() (model.Currency, model.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.from, c.to
}

// SymbolForKey maps a keystroke to a keypad symbol.
func SymbolForKey(r rune) (calculator.Symbol, bool) {
	switch {
	case r >= '0' && r <= '9':
		return calculator.Symbol(string(r)), true
	case r == '.' || r == ',':
		return calculator.SymDot, true
	case r == '+':
		return calculator.SymAdd, true
	case r == '-':
		return calculator.SymSub, true
	case r == '*' || r == 'x' || r == 'X':
		return calculator.SymMul, true
	case r == '/':
		return calculator.SymDiv, true
	case r == '%':
		return calculator.SymPercent, true
	case r == '=' || r == '\r' || r == '\n':
		return calculator.SymEquals, true
	case r == 0x7f || r == 0x08:
		return calculator.SymBackspace, true
	case r == 'c' || r == 'C' || r == 0x1b:
		return calculator.SymClear, true
	}
	return "", false
}

// HandleKey applies one keystroke and returns the display line.
// Unknown keys leave the display as it was.
func (c *Console) HandleKey(r rune) string {
	sym, ok := SymbolForKey(r)
	if !ok {
		return c.Display()
	}
	return c.press(sym)
}

func (c *Console) press(sym calculator.Symbol) string {
	c.mu.Lock()
	next, entry, err := c.session.Press(sym)
	if err == nil {
		c.session = next
	}
	display := c.session.Display()
	c.mu.Unlock()

	if sym == calculator.SymEquals && (entry != nil || err != nil) {
		c.deps.Metrics.ObserveEvaluation(err)
	}
	if err != nil {
		var pe *calculator.ParseError
		if errors.As(err, &pe) {
			c.deps.Logger.Debug("evaluation rejected", zap.String("expr", pe.Expr), zap.Error(err))
		}
		return display + "  (invalid amount)"
	}
	if entry != nil {
		c.recordCalculation(*entry)
	}
	return display
}

func (c *Console) recordCalculation(e model.HistoryEntry) {
	c.deps.History.Append(e)
	c.saveHistory()
	if err := c.deps.Recorder.RecordCalculation(&recorder.CalculationEvent{
		Equation: e.Equation,
		Result:   e.Result,
	}); err != nil {
		c.deps.Logger.Warn("record calculation failed", zap.Error(err))
	}
}

func (c *Console) saveHistory() {
	if c.deps.HistoryFile == "" {
		return
	}
	if err := c.deps.History.Save(c.deps.HistoryFile); err != nil {
		c.deps.Logger.Warn("save history failed", zap.String("path", c.deps.HistoryFile), zap.Error(err))
	}
}

// HandleCommand runs one typed command and returns the reply.
func (c *Console) HandleCommand(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "history":
		if len(args) == 1 && args[0] == "--all" {
			return c.storedHistory()
		}
		return notifier.FormatHistory(c.deps.History.Entries())
	case "clear-history":
		c.deps.History.Clear()
		c.saveHistory()
		return "History cleared"
	case "convert":
		return c.convertCommand(args)
	case "from", "to":
		if len(args) != 1 {
			return fmt.Sprintf("usage: %s CODE", strings.ToLower(fields[0]))
		}
		cur, err := model.ParseCurrency(args[0])
		if err != nil {
			return notifier.FormatConversionError(fmt.Errorf("%w: %s", rates.ErrUnsupportedCurrency, args[0]))
		}
		c.mu.Lock()
		if strings.ToLower(fields[0]) == "from" {
			c.from = cur
		} else {
			c.to = cur
		}
		c.mu.Unlock()
		return c.convertCurrent()
	case "swap":
		c.mu.Lock()
		c.from, c.to = c.to, c.from
		c.mu.Unlock()
		return c.convertCurrent()
	case "rates":
		t := c.deps.Updater.Table()
		return notifier.FormatRates(t.Snapshot()) + "\n" + notifier.FormatRatesSummary(t)
	case "refresh":
		return c.refresh()
	case "help":
		return helpText
	default:
		return fmt.Sprintf("Unknown command %q, type help", fields[0])
	}
}

// calculationLister is implemented by recorders that can read back what they stored.
type calculationLister interface {
	RecentCalculations(limit int) ([]string, error)
}

// storedHistoryLimit caps "history --all".
const storedHistoryLimit = 1000

func (c *Console) storedHistory() string {
	lister, ok := c.deps.Recorder.(calculationLister)
	if !ok {
		return "Full history needs the SQLite recorder"
	}
	lines, err := lister.RecentCalculations(storedHistoryLimit)
	if err != nil {
		c.deps.Logger.Warn("read stored calculations failed", zap.Error(err))
		return "Could not read stored calculations"
	}
	if len(lines) == 0 {
		return "No calculations yet"
	}
	return strings.Join(lines, "\n")
}

const helpText = `Keys: 0-9 . + - * / % = (Enter)  Backspace  c/Esc clear
Commands:
  history                     show past calculations
  history --all               every stored calculation, newest first
  clear-history               forget all calculations
  convert [amount] [FROM TO]  convert amount (or the display)
  from CODE | to CODE         select currencies
  swap                        swap FROM and TO
  rates                       show exchange rates
  refresh                     fetch live rates
  help                        this text
Currencies: EUR USD RON GBP TRY`

// convertCommand accepts "convert", "convert 100", "convert RON USD" and
// "convert 100 RON USD". Currencies given here become the selected pair.
func (c *Console) convertCommand(args []string) string {
	amount := ""
	if len(args) == 1 || len(args) == 3 {
		amount, args = args[0], args[1:]
	}
	switch len(args) {
	case 0:
	case 2:
		from, err := model.ParseCurrency(args[0])
		if err != nil {
			return notifier.FormatConversionError(fmt.Errorf("%w: %s", rates.ErrUnsupportedCurrency, args[0]))
		}
		to, err := model.ParseCurrency(args[1])
		if err != nil {
			return notifier.FormatConversionError(fmt.Errorf("%w: %s", rates.ErrUnsupportedCurrency, args[1]))
		}
		c.mu.Lock()
		c.from, c.to = from, to
		c.mu.Unlock()
	default:
		return "usage: convert [amount] [FROM TO]"
	}

	c.mu.Lock()
	c.amount = amount
	c.mu.Unlock()
	return c.convertCurrent()
}

// convertCurrent converts the remembered amount, or the display when none
// was typed, with the selected pair.
func (c *Console) convertCurrent() string {
	c.mu.Lock()
	amount, from, to := c.amount, c.from, c.to
	if amount == "" {
		amount = c.session.Buffer()
	}
	c.converted = true
	c.mu.Unlock()

	if amount == "" || amount == "0" {
		return "Enter an amount or calculate something to convert"
	}

	v, out, err := c.deps.Updater.Table().ConvertText(amount, from, to)
	if err == nil && (math.IsInf(v, 0) || math.IsNaN(v)) {
		err = fmt.Errorf("%w: %q", rates.ErrInvalidAmount, amount)
	}
	c.deps.Metrics.ObserveConversion(string(from), string(to), err)
	if err != nil {
		return notifier.FormatConversionError(err)
	}

	if err := c.deps.Recorder.RecordConversion(&recorder.ConversionEvent{
		Amount: v, From: string(from), To: string(to), Converted: out,
	}); err != nil {
		c.deps.Logger.Warn("record conversion failed", zap.Error(err))
	}
	return notifier.FormatConversion(v, from, out, to)
}

func (c *Console) refresh() string {
	now := c.deps.Now()
	c.mu.Lock()
	if !c.lastRefresh.IsZero() {
		if wait := c.deps.RefreshCooldown - now.Sub(c.lastRefresh); wait > 0 {
			c.mu.Unlock()
			return fmt.Sprintf("Please wait %.0fs before refreshing again", math.Ceil(wait.Seconds()))
		}
	}
	c.lastRefresh = now
	c.mu.Unlock()

	// the outcome reaches the terminal through the notifier
	c.deps.Updater.Refresh(c.ctx)
	return "Refreshing rates..."
}

// OnRatesUpdated re-runs the last conversion after live rates arrive.
func (c *Console) OnRatesUpdated(o rates.Outcome) string {
	c.mu.Lock()
	converted := c.converted
	c.mu.Unlock()
	if !o.Live() || !converted {
		return ""
	}
	return c.convertCurrent()
}
