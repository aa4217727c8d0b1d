package ledger

import (
	"sync"
	"time"

	"core-ledger/model"
)

// Calendar supplies the current date to loan date logic.
type Calendar interface {
	CurrentDate() time.Time
}

// SystemCalendar reports today's date in UTC.
type SystemCalendar struct{}

func (SystemCalendar) CurrentDate() time.Time {
	return model.Date(time.Now().UTC())
}

// FixedCalendar reports a date that only changes when told to.
type FixedCalendar struct {
	mu   sync.Mutex
	date time.Time
}

// NewFixedCalendar returns a calendar frozen at date.
func NewFixedCalendar(date time.Time) *FixedCalendar {
	return &FixedCalendar{date: model.Date(date)}
}

func (c *FixedCalendar) CurrentDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// Set moves the calendar to date.
func (c *FixedCalendar) Set(date time.Time) {
	c.mu.Lock()
	c.date = model.Date(date)
	c.mu.Unlock()
}

// Advance moves the calendar forward by n calendar months.
func (c *FixedCalendar) Advance(months int) {
	c.mu.Lock()
	c.date = model.AddMonths(c.date, months)
	c.mu.Unlock()
}
