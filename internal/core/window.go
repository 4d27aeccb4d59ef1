package core

import (
	"strconv"
	"time"
)

const labelLayout = "January 2006"

// MonthWindow is an inclusive range of calendar days with a display label.
type MonthWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// MonthAt returns the calendar month offset months away from now's month.
// A negative offset moves into the past. Start and End are midnight UTC of the
// first and last day.
func MonthAt(now time.Time, offset int) MonthWindow {
	start := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return MonthWindow{Start: start, End: end, Label: start.Format(labelLayout)}
}

// Span joins two windows into one running from from.Start to to.End.
func Span(from, to MonthWindow) MonthWindow {
	return MonthWindow{
		Start: from.Start,
		End:   to.End,
		Label: from.Label + " to " + to.Label,
	}
}

// Contains reports whether the day falls inside the window, both ends included.
func (w MonthWindow) Contains(day int) bool {
	return day >= DayKey(w.Start) && day <= DayKey(w.End)
}

// MonthKey returns the YYYYMM key the ledger stores budget months under.
func MonthKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// DayKey returns the YYYYMMDD key the ledger stores transaction dates under.
func DayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// LedgerDate is a transaction date exactly as the ledger stored it,
// normally an eight digit YYYYMMDD integer.
type LedgerDate string

// Key parses the stored value as a YYYYMMDD key.
func (d LedgerDate) Key() (int, bool) {
	if !d.wellFormed() {
		return 0, false
	}
	k, err := strconv.Atoi(string(d))
	if err != nil {
		return 0, false
	}
	return k, true
}

// Display formats an eight digit date as YYYY-MM-DD. Anything else is
// returned unchanged.
func (d LedgerDate) Display() string {
	if !d.wellFormed() {
		return string(d)
	}
	s := string(d)
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

func (d LedgerDate) wellFormed() bool {
	if len(d) != 8 {
		return false
	}
	for _, r := range d {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
