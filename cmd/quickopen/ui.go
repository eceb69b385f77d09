package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quickopen/internal/corpus"
	"github.com/dshills/quickopen/internal/logging"
	"github.com/dshills/quickopen/internal/picker"
	"github.com/dshills/quickopen/internal/search"
)

// ui is the tcell picker surface: a prompt line, the ranked list with
// match-position highlighting, and a one-line status footer.
type ui struct {
	screen tcell.Screen
	pick   *picker.Picker
	logger *logging.Logger

	mu     sync.Mutex
	set    search.ResultSet
	input  []rune
	sel    int
	status string
}

func newUI(pick *picker.Picker, logger *logging.Logger) (*ui, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	return &ui{screen: screen, pick: pick, logger: logger}, nil
}

// Publish implements search.Publisher: store the set and wake the
// event loop. Never blocks.
func (u *ui) Publish(set search.ResultSet) {
	u.mu.Lock()
	u.set = set
	if u.sel >= len(set.Results) {
		u.sel = 0
	}
	u.mu.Unlock()
	u.wake()
}

// refresh re-runs the current query, typically after the corpus
// changed underneath it.
func (u *ui) refresh() {
	u.mu.Lock()
	raw := string(u.input)
	u.mu.Unlock()
	u.pick.SetQuery(raw)
}

// quit wakes the loop with a termination request.
func (u *ui) quit() {
	_ = u.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
}

func (u *ui) wake() {
	_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

type quitRequest struct{}

// loop runs the picker until a choice is made or the user quits.
func (u *ui) loop() error {
	if err := u.screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer u.screen.Fini()

	// First frame: the empty query surfaces the recents list.
	u.pick.SetQuery("")

	for {
		u.draw()

		switch ev := u.screen.PollEvent().(type) {
		case *tcell.EventInterrupt:
			if _, quit := ev.Data().(quitRequest); quit {
				return nil
			}

		case *tcell.EventResize:
			u.screen.Sync()

		case *tcell.EventKey:
			done, err := u.handleKey(ev)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// handleKey returns done=true when the loop should exit.
func (u *ui) handleKey(ev *tcell.EventKey) (bool, error) {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
		return true, nil

	case ev.Key() == tcell.KeyUp || ev.Key() == tcell.KeyCtrlP:
		u.moveSelection(-1)

	case ev.Key() == tcell.KeyDown || ev.Key() == tcell.KeyCtrlN:
		u.moveSelection(1)

	case ev.Key() == tcell.KeyEnter:
		return u.choose()

	case ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2:
		u.editInput(func(in []rune) []rune {
			if len(in) == 0 {
				return in
			}
			return in[:len(in)-1]
		})

	case ev.Key() == tcell.KeyCtrlU:
		u.editInput(func([]rune) []rune { return nil })

	case ev.Modifiers()&tcell.ModAlt != 0 && ev.Rune() == 'm':
		u.markSelection()

	case ev.Modifiers()&tcell.ModAlt != 0 && ev.Rune() >= '1' && ev.Rune() <= '9':
		return u.openMark(int(ev.Rune() - '1'))

	case ev.Key() == tcell.KeyRune:
		r := ev.Rune()
		u.editInput(func(in []rune) []rune { return append(in, r) })
	}

	return false, nil
}

func (u *ui) editInput(edit func([]rune) []rune) {
	u.mu.Lock()
	u.input = edit(u.input)
	u.sel = 0
	u.status = ""
	raw := string(u.input)
	u.mu.Unlock()

	u.pick.SetQuery(raw)
}

func (u *ui) moveSelection(delta int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n := len(u.set.Results); n > 0 {
		u.sel = (u.sel + delta + n) % n
	}
}

func (u *ui) choose() (bool, error) {
	u.mu.Lock()
	sel := u.sel
	empty := len(u.set.Results) == 0
	u.mu.Unlock()
	if empty {
		return false, nil
	}

	_, err := u.pick.Select(sel)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, picker.ErrCandidateVanished):
		u.logger.Info("selection vanished: %v", err)
		u.setStatus("file vanished, rescanning")
		return false, nil
	default:
		return false, err
	}
}

func (u *ui) markSelection() {
	u.mu.Lock()
	var cand corpus.Candidate
	if u.sel < len(u.set.Results) {
		cand = u.set.Results[u.sel].Candidate
	}
	u.mu.Unlock()
	if cand.IsZero() {
		return
	}

	slot := u.pick.Marks().Set(cand)
	u.setStatus(fmt.Sprintf("marked as %d", slot+1))
}

func (u *ui) openMark(slot int) (bool, error) {
	_, err := u.pick.OpenMark(slot)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, picker.ErrMarkEmpty):
		u.setStatus(fmt.Sprintf("mark %d is empty", slot+1))
		return false, nil
	case errors.Is(err, picker.ErrCandidateVanished):
		u.setStatus("marked file vanished")
		return false, nil
	default:
		return false, err
	}
}

func (u *ui) setStatus(msg string) {
	u.mu.Lock()
	u.status = msg
	u.mu.Unlock()
}

func (u *ui) draw() {
	u.mu.Lock()
	set := u.set
	input := string(u.input)
	sel := u.sel
	status := u.status
	u.mu.Unlock()

	u.screen.Clear()
	width, height := u.screen.Size()
	if width == 0 || height < 2 {
		u.screen.Show()
		return
	}

	promptStyle := tcell.StyleDefault.Bold(true)
	drawText(u.screen, 0, 0, "> "+input, promptStyle)
	u.screen.ShowCursor(len("> ")+len([]rune(input)), 0)

	listHeight := height - 2
	for i := 0; i < listHeight && i < len(set.Results); i++ {
		res := set.Results[i]
		style := tcell.StyleDefault
		if i == sel {
			style = style.Reverse(true)
		}
		drawResult(u.screen, 1+i, width, res, style, u.markLabel(res))
	}

	footer := fmt.Sprintf("%d/%d", len(set.Results), u.pick.Corpus().Len())
	if status != "" {
		footer = status + "  " + footer
	}
	drawText(u.screen, 0, height-1, footer, tcell.StyleDefault.Dim(true))

	u.screen.Show()
}

// markLabel returns " [n]" when the result is marked, else empty.
func (u *ui) markLabel(res search.Result) string {
	if slot, ok := u.pick.Marks().SlotOf(res.Candidate); ok {
		return fmt.Sprintf(" [%d]", slot+1)
	}
	return ""
}

// drawResult renders one candidate line, underlining matched runes.
func drawResult(screen tcell.Screen, y, width int, res search.Result, style tcell.Style, label string) {
	matched := make(map[int]bool, len(res.Positions))
	for _, p := range res.Positions {
		matched[p] = true
	}

	x := 0
	for i, r := range []rune(res.Candidate.Path) {
		if x >= width {
			break
		}
		cell := style
		if matched[i] {
			cell = cell.Underline(true).Bold(true)
		}
		screen.SetContent(x, y, r, nil, cell)
		x++
	}
	for _, r := range label {
		if x >= width {
			break
		}
		screen.SetContent(x, y, r, nil, style.Dim(true))
		x++
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
