package domain

import (
	"time"
)

// DateLayout is the wire and storage form of a record date.
const DateLayout = "2006-01-02"

type Record struct {
	ID           uint    `json:"id"`
	Category     *string `json:"category"`
	Date         *Date   `json:"date"`
	ModelName    *string `json:"model_name"`
	SerialNumber *string `json:"serial_number"`
	Content      *string `json:"content"`
}

// RecordInput carries the client-supplied fields of a new record. Date is kept
// as the raw string so that parsing failures surface as validation errors.
type RecordInput struct {
	Category     *string `json:"category"`
	Date         *string `json:"date"`
	ModelName    *string `json:"model_name"`
	SerialNumber *string `json:"serial_number"`
	Content      *string `json:"content"`
}

type SearchQuery struct {
	Text     string
	Category string
}

// Tokens returns the whitespace separated terms of the text query.
func (q SearchQuery) Tokens() []string {
	return Tokenize(q.Text)
}

// Identity is the caller proven by a verified token. TokenID is the token's
// unique id, used to correlate requests made with the same token.
type Identity struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}
