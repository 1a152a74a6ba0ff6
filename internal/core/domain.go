package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar days. Records carry a calendar
// day only, never an instant, so dates are compared as formatted days and no
// timezone conversion is applied anywhere.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day with no time component.
	Date struct {
		time.Time
	}

	// Record is a single expense entry as stored by the remote ledger
	// service. IDs are assigned server-side; the client never synthesizes
	// one.
	Record struct {
		ID       string          `json:"id,omitempty"`
		Item     string          `json:"item"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Category string          `json:"category"`
		Date     Date            `json:"date"`
		Note     string          `json:"note,omitempty"`
	}

	// Identity holds the claims read from a decoded identity assertion.
	// It is created once at login and immutable for the session, except
	// for the display name which may be merged after a settings save.
	Identity struct {
		SubjectID   string `json:"sub"`
		DisplayName string `json:"name"`
		Email       string `json:"email"`
	}
)

var (
	ErrTransport      = errors.New("remote store unreachable")
	ErrRemoteRejected = errors.New("remote store rejected the request")

	ErrEmptyText         = errors.New("empty expense text")
	ErrEmptyItem         = errors.New("empty item")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrEmptyCategory     = errors.New("empty category")

	ErrNotLoggedIn = errors.New("not logged in")
	ErrBusy        = errors.New("a submission is already in flight")
)

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current wall-clock calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date in wire format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// SameDay reports whether two dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month() && d.Day() == other.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
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

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.Item) == "" {
		return ErrEmptyItem
	}
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return r.Date.Validate()
}

// DisplayAmount renders the amount with its stored currency. No conversion
// is ever applied.
func (r Record) DisplayAmount() string {
	return r.Amount.StringFixed(2) + " " + r.Currency
}

func (id Identity) Validate() error {
	if strings.TrimSpace(id.SubjectID) == "" {
		return errors.New("identity missing subject id")
	}
	return nil
}
