package calendar

import (
	"testing"
	"time"

	"kakeibo/internal/core"
)

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.January, 31},
		{2024, time.December, 31},
		{1900, time.February, 28}, // century, not a leap year
		{2000, time.February, 29}, // 400-year rule
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("DaysInMonth(%d, %v) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestFirstWeekdayOffset(t *testing.T) {
	// January 2024 starts on a Monday; 0 is Sunday.
	if got := FirstWeekdayOffset(2024, time.January); got != 1 {
		t.Fatalf("FirstWeekdayOffset(2024, January) = %d, want 1", got)
	}
	// September 2024 starts on a Sunday.
	if got := FirstWeekdayOffset(2024, time.September); got != 0 {
		t.Fatalf("FirstWeekdayOffset(2024, September) = %d, want 0", got)
	}
}

func TestMonthNavigationIsReversible(t *testing.T) {
	for _, start := range []core.Date{
		core.NewDate(2024, time.June, 15),
		core.NewDate(2023, time.December, 1),
		core.NewDate(2024, time.January, 31),
	} {
		a := New(start)
		wantYear, wantMonth := a.Viewed()

		a.Prev()
		a.Next()
		y, m := a.Viewed()
		if y != wantYear || m != wantMonth {
			t.Fatalf("next(prev(%d-%v)) = %d-%v", wantYear, wantMonth, y, m)
		}

		a.Next()
		a.Prev()
		y, m = a.Viewed()
		if y != wantYear || m != wantMonth {
			t.Fatalf("prev(next(%d-%v)) = %d-%v", wantYear, wantMonth, y, m)
		}
	}
}

func TestMonthNavigationRollsOverYears(t *testing.T) {
	a := New(core.NewDate(2023, time.December, 5))
	a.Next()
	if y, m := a.Viewed(); y != 2024 || m != time.January {
		t.Fatalf("next of December 2023 = %d-%v", y, m)
	}

	a = New(core.NewDate(2024, time.January, 5))
	a.Prev()
	if y, m := a.Viewed(); y != 2023 || m != time.December {
		t.Fatalf("prev of January 2024 = %d-%v", y, m)
	}
}

func TestSelectKeepsViewedMonth(t *testing.T) {
	a := New(core.NewDate(2024, time.March, 10))
	a.Next() // viewing April, selection still March 10

	got := a.Select(5)
	want := core.NewDate(2024, time.April, 5)
	if !got.SameDay(want) {
		t.Fatalf("Select(5) = %v, want %v", got, want)
	}
	if y, m := a.Viewed(); y != 2024 || m != time.April {
		t.Fatalf("selecting a day must not move the viewed month, got %d-%v", y, m)
	}
}

func TestCellsLayout(t *testing.T) {
	// January 2024: offset 1 (Monday start), 31 days.
	a := New(core.NewDate(2024, time.January, 15))
	today := core.NewDate(2024, time.January, 8)

	var cells []Cell
	for c := range a.Cells(today, map[int]bool{3: true}) {
		cells = append(cells, c)
	}

	if len(cells) != 1+31 {
		t.Fatalf("cell count = %d, want 32", len(cells))
	}
	if !cells[0].Blank() {
		t.Fatal("first cell should be a leading blank")
	}
	if cells[1].Day != 1 || cells[len(cells)-1].Day != 31 {
		t.Fatalf("day cells misaligned: first=%d last=%d", cells[1].Day, cells[len(cells)-1].Day)
	}

	for _, c := range cells {
		switch c.Day {
		case 8:
			if !c.IsToday {
				t.Fatal("day 8 should be flagged as today")
			}
		case 15:
			if !c.IsSelected {
				t.Fatal("day 15 should be flagged as selected")
			}
		case 3:
			if !c.HasRecords {
				t.Fatal("day 3 should be flagged as having records")
			}
		default:
			if c.IsToday || c.IsSelected || c.HasRecords {
				t.Fatalf("unexpected flags on cell %+v", c)
			}
		}
	}
}

func TestCellsIsRestartableAndLazy(t *testing.T) {
	a := New(core.NewDate(2024, time.January, 15))
	today := core.NewDate(2024, time.January, 8)
	seq := a.Cells(today, nil)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if first, second := count(), count(); first != second {
		t.Fatalf("restarted sequence differs: %d vs %d", first, second)
	}

	// Early break must stop the sequence cleanly.
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early break consumed %d cells", n)
	}
}

func TestCellsFlagsNotCachedBetweenRenders(t *testing.T) {
	a := New(core.NewDate(2024, time.January, 15))

	read := func(today core.Date) map[int]Cell {
		out := make(map[int]Cell)
		for c := range a.Cells(today, nil) {
			if !c.Blank() {
				out[c.Day] = c
			}
		}
		return out
	}

	first := read(core.NewDate(2024, time.January, 8))
	if !first[8].IsToday || first[9].IsToday {
		t.Fatal("today flag wrong on first render")
	}

	// Midnight passed: the flag must follow the clock, not the last render.
	second := read(core.NewDate(2024, time.January, 9))
	if second[8].IsToday || !second[9].IsToday {
		t.Fatal("today flag was cached across renders")
	}

	a.Select(20)
	third := read(core.NewDate(2024, time.January, 9))
	if third[15].IsSelected || !third[20].IsSelected {
		t.Fatal("selected flag was cached across renders")
	}
}
