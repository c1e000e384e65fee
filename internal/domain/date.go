package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

// Date is a calendar date without a time of day, held as UTC midnight.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: "must be an ISO-8601 date (YYYY-MM-DD)"}
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationError{Field: "date", Message: "must be a string"}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Tokenize splits a free-text query on Unicode whitespace, which includes the
// full-width ideographic space U+3000.
func Tokenize(query string) []string {
	return strings.FieldsFunc(query, unicode.IsSpace)
}
