package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/justyntemme/scripthost/pkg/plugin"
)

const (
	colDef    = termbox.ColorDefault
	colWhite  = termbox.ColorWhite
	colGreen  = termbox.ColorGreen
	colYellow = termbox.ColorYellow
	colCyan   = termbox.ColorCyan
)

// NewMonitorCommand creates the monitor command.
func NewMonitorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor [script.lua]",
		Short: "Run a script with a live parameter view",
		Long: `Run a script like "run" and show both sides of every parameter as they
change. Arrow keys select a parameter and move its host value the way
automation would. Enter types a value in the parameter's display units
("2.5 kHz", "-6 dB", "on"). 'c' clears the recorded host edits and 't'
pauses block timing; 'q' or Esc quits. Logs go to the configured log file, or are discarded.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return WrapExitError(ExitCommandError, "monitor needs a terminal", nil)
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Script = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			log, err := newLogger(cfg, io.Discard)
			if err != nil {
				return err
			}

			rec := plugin.NewAutomationRecorder()
			s, err := newSession(cfg, log, rec)
			if err != nil {
				return err
			}
			defer s.close()

			parentCtx := cmd.Context()
			if parentCtx == nil {
				parentCtx = context.Background()
			}
			ctx, cancel := context.WithCancel(parentCtx)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- s.run(ctx) }()

			if err := runMonitor(s, rec); err != nil {
				cancel()
				<-done
				return WrapExitError(ExitFailure, "monitor failed", err)
			}
			cancel()
			return <-done
		},
	}
}

// monitorState is the TUI model. Only the TUI goroutine touches it.
type monitorState struct {
	s        *session
	rec      *plugin.AutomationRecorder
	selected int
	exit     bool

	editing bool
	input   []rune
	status  string
}

func runMonitor(s *session, rec *plugin.AutomationRecorder) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("failed to initialize TUI: %w", err)
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)

	state := &monitorState{s: s, rec: rec}

	eventQueue := make(chan termbox.Event)
	stopPolling := pollEvents(eventQueue)
	defer stopPolling()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	state.draw()

	for !state.exit {
		select {
		case ev := <-eventQueue:
			if ev.Type == termbox.EventKey {
				state.handleKey(ev)
			}
			state.draw()
		case <-ticker.C:
			state.draw()
		}
	}
	return nil
}

// pollEvents forwards termbox events to queue until stop is called. stop
// must run before termbox.Close. The poller only leaves PollEvent on an
// interrupt, so termbox.Interrupt always has a receiver.
func pollEvents(queue chan<- termbox.Event) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case queue <- ev:
			case <-done:
			}
		}
	}()
	return func() {
		close(done)
		termbox.Interrupt()
		<-exited
	}
}

func (m *monitorState) handleKey(ev termbox.Event) {
	if m.editing {
		m.handleEditKey(ev)
		return
	}
	if ev.Key == termbox.KeyEsc || ev.Ch == 'q' {
		m.exit = true
		return
	}

	switch {
	case ev.Key == termbox.KeyEnter:
		if m.s.inst.Parameters().GetParameterByIndex(m.selected) != nil {
			m.editing = true
			m.input = m.input[:0]
			m.status = ""
		}
	case ev.Ch == 'c':
		m.rec.Reset()
	case ev.Ch == 't':
		bt := m.s.inst.BlockTimer()
		bt.SetEnabled(!bt.IsEnabled())
	case ev.Key == termbox.KeyArrowUp:
		m.move(-1)
	case ev.Key == termbox.KeyArrowDown:
		m.move(1)
	case ev.Key == termbox.KeyArrowRight:
		m.nudge(0.01)
	case ev.Key == termbox.KeyArrowLeft:
		m.nudge(-0.01)
	case ev.Ch == ']':
		m.nudge(0.1)
	case ev.Ch == '[':
		m.nudge(-0.1)
	}
}

func (m *monitorState) handleEditKey(ev termbox.Event) {
	switch {
	case ev.Key == termbox.KeyEsc:
		m.editing = false
	case ev.Key == termbox.KeyEnter:
		m.editing = false
		m.apply(string(m.input))
	case ev.Key == termbox.KeyBackspace || ev.Key == termbox.KeyBackspace2:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case ev.Key == termbox.KeySpace:
		m.input = append(m.input, ' ')
	case ev.Ch != 0:
		m.input = append(m.input, ev.Ch)
	}
}

// apply parses text as the selected parameter's display value and sets it
// host-side.
func (m *monitorState) apply(text string) {
	pm := m.s.inst.Parameters()
	p := pm.GetParameterByIndex(m.selected)
	if p == nil {
		return
	}
	v, err := p.ParseValue(text)
	if err != nil {
		m.status = err.Error()
		return
	}
	pm.SetFromHost(m.selected, v)
	m.status = fmt.Sprintf("%s = %s", p.Name, p.FormatValue(v))
}

func (m *monitorState) move(delta int) {
	n := m.s.inst.Parameters().GetParameterCount()
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

// nudge moves the selected host value as automation playback would.
func (m *monitorState) nudge(delta float64) {
	pm := m.s.inst.Parameters()
	v, ok := pm.Normalized(m.selected)
	if !ok {
		return
	}
	pm.SetFromHost(m.selected, v+delta)
}

func (m *monitorState) draw() {
	termbox.Clear(colDef, colDef)

	info := describe(m.s.inst)
	printTB(0, 0, colCyan, colDef, fmt.Sprintf("scripthost monitor - %s", info.Script))
	printTB(0, 1, colDef, colDef, "Up/Down select, Left/Right nudge, [ ] coarse, Enter type a value, 'c' clear edits, 't' timing. 'q' or Esc to quit.")

	rows := monitorRows(m.s.inst)
	for i, r := range rows {
		fg, bg := colWhite, colDef
		if i == m.selected {
			fg, bg = colDef, colWhite
		}
		printTB(0, 3+i, fg, bg, r)
	}

	y := 4 + len(rows)
	stats := m.s.inst.Synchronizer().Stats()
	printTB(0, y, colYellow, colDef, fmt.Sprintf("host wins %d  conflicts %d  script changes %d  pushed %d  skipped %d",
		stats.HostWins, stats.Conflicts, stats.EngineQueued, stats.Pushed, stats.Skipped))
	printTB(0, y+1, colGreen, colDef, m.timingLine())
	printTB(0, y+2, colDef, colDef, m.editSummary())

	switch {
	case m.editing:
		printTB(0, y+4, colCyan, colDef, "value: "+string(m.input)+"_")
	case m.status != "":
		printTB(0, y+4, colDef, colDef, m.status)
	}

	termbox.Flush()
}

func (m *monitorState) timingLine() string {
	bt := m.s.inst.BlockTimer()
	if !bt.IsEnabled() {
		return "block timing off ('t' to resume)"
	}
	return bt.Snapshot().Report(m.s.inst.SampleRate())
}

// editSummary describes what the host has been told about script-driven
// edits, including the last value reported for the selected parameter.
func (m *monitorState) editSummary() string {
	line := fmt.Sprintf("edits reported to host: %d  open gestures %d  unpaired %d",
		len(m.rec.Edits()), m.rec.Open(), m.rec.Unpaired())
	p := m.s.inst.Parameters().GetParameterByIndex(m.selected)
	if p == nil {
		return line
	}
	if v, ok := m.rec.Last(p.ID); ok {
		line += fmt.Sprintf("  last %s %s", p.Name, p.FormatValue(v))
	}
	return line
}

// monitorRows formats one line per parameter: host value, script value and
// whether a script change is waiting to reach the host.
func monitorRows(inst *plugin.Instance) []string {
	params := inst.Parameters().All()
	deferred := inst.Synchronizer().Deferred()
	rows := make([]string, 0, len(params))
	for i, p := range params {
		host := p.GetValue()
		native, _ := inst.Engine().Value(i)
		mark := " "
		if _, pending := deferred.Pending(i); pending {
			mark = "*"
		}
		rows = append(rows, fmt.Sprintf("%s %s host %6.3f  %-12s script %10.4g",
			mark, fitName(p.Name, nameWidth), host, p.FormatValue(host), native))
	}
	return rows
}

func printTB(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x += runewidth.RuneWidth(c)
	}
}
