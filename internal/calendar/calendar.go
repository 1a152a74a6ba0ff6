// Package calendar derives the month-grid view from a selected date and the
// ledger. Cells are projections: recomputed on every render, never stored.
package calendar

import (
	"iter"
	"sync"
	"time"

	"kakeibo/internal/core"
)

// Cell is one slot of the month grid. Leading blank cells pad the first
// week so weekday columns stay aligned; they carry Day == 0.
type Cell struct {
	Day        int
	IsToday    bool
	IsSelected bool
	HasRecords bool
}

// Blank reports whether the cell is a leading pad slot.
func (c Cell) Blank() bool { return c.Day == 0 }

// DaysInMonth returns the number of calendar days in a month, computed as
// day 0 of the following month so leap years fall out of the arithmetic.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset returns the weekday index of the 1st of the month,
// 0=Sunday through 6=Saturday.
func FirstWeekdayOffset(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// Aggregator tracks the viewed month and the selected day. Navigation moves
// the viewed month only; selecting a day never changes the viewed month.
type Aggregator struct {
	mu        sync.Mutex
	viewYear  int
	viewMonth time.Month
	selected  core.Date
}

// New starts viewing the month containing the given date, with that date
// selected.
func New(initial core.Date) *Aggregator {
	return &Aggregator{
		viewYear:  initial.Year(),
		viewMonth: initial.Month(),
		selected:  initial,
	}
}

// Viewed returns the currently viewed year and month.
func (a *Aggregator) Viewed() (int, time.Month) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewYear, a.viewMonth
}

// Selected returns the currently selected date.
func (a *Aggregator) Selected() core.Date {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Prev moves the viewed month back by one, rolling over year boundaries.
func (a *Aggregator) Prev() {
	a.shift(-1)
}

// Next moves the viewed month forward by one, rolling over year boundaries.
func (a *Aggregator) Next() {
	a.shift(1)
}

func (a *Aggregator) shift(months int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := time.Date(a.viewYear, a.viewMonth+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	a.viewYear, a.viewMonth = t.Year(), t.Month()
}

// Select marks the given day of the viewed month as selected and returns
// the resulting date. The viewed month itself does not change.
func (a *Aggregator) Select(day int) core.Date {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = core.NewDate(a.viewYear, a.viewMonth, day)
	return a.selected
}

// View moves the viewed month to the one containing the date. Used when a
// view wants the calendar to follow an externally chosen date.
func (a *Aggregator) View(d core.Date) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewYear, a.viewMonth = d.Year(), d.Month()
}

// Cells returns a lazy, finite, restartable sequence covering the leading
// blank offset plus every day of the viewed month. Today/selected flags are
// evaluated against the arguments at iteration time, not cached, because
// "today" can change between renders. hasRecords carries the ledger's
// presence flags for the viewed month and may be nil.
func (a *Aggregator) Cells(today core.Date, hasRecords map[int]bool) iter.Seq[Cell] {
	a.mu.Lock()
	year, month := a.viewYear, a.viewMonth
	selected := a.selected
	a.mu.Unlock()

	offset := FirstWeekdayOffset(year, month)
	days := DaysInMonth(year, month)

	return func(yield func(Cell) bool) {
		for i := 0; i < offset; i++ {
			if !yield(Cell{}) {
				return
			}
		}
		for day := 1; day <= days; day++ {
			date := core.NewDate(year, month, day)
			cell := Cell{
				Day:        day,
				IsToday:    date.SameDay(today),
				IsSelected: date.SameDay(selected),
				HasRecords: hasRecords[day],
			}
			if !yield(cell) {
				return
			}
		}
	}
}
