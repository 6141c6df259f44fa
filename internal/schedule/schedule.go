package schedule

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	PlanningLeadDays = 7
	DeliveryLeadDays = 2

	PriorityLow    = 1
	PriorityMedium = 5
	PriorityHigh   = 10

	Layout = "2006-01-02"
)

// Date is a calendar day anchored at UTC midnight, so day arithmetic never
// crosses a DST boundary.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day t falls on in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) AddDays(n int) Date { return Date{d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.Format(Layout) }

// DaysUntil returns the number of whole days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v.UTC())
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) < len(Layout) {
		return fmt.Errorf("scan date: %q", s)
	}
	parsed, err := ParseDate(s[:len(Layout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (Date) GormDataType() string { return "date" }

// PlanningStart is the day design work should begin for an event.
func PlanningStart(event Date) Date { return event.AddDays(-PlanningLeadDays) }

// Delivery is the day finished material must be handed over.
func Delivery(event Date) Date { return event.AddDays(-DeliveryLeadDays) }

// Priority buckets the days left before the event. Exactly 7 and exactly 2
// days fall into the less urgent bucket.
func Priority(event, today Date) int {
	days := today.DaysUntil(event)
	switch {
	case days > PlanningLeadDays:
		return PriorityLow
	case days > DeliveryLeadDays:
		return PriorityMedium
	default:
		return PriorityHigh
	}
}

// Month returns the first day of the month containing d and the first day of the next.
func Month(d Date) (Date, Date) {
	first := NewDate(d.Year(), d.Month(), 1)
	return first, Date{first.AddDate(0, 1, 0)}
}

func ParseMonth(s string) (Date, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), 1), nil
}

// Clock reports the current calendar day in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always reports day.
func FixedClock(day Date) *Clock {
	return &Clock{loc: time.UTC, now: func() time.Time { return day.Time }}
}

func (c *Clock) Today() Date { return DateOf(c.now().In(c.loc)) }

func (c *Clock) Now() time.Time { return c.now() }
