package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Transaction is a single ledger entry. Amounts follow the payment-feed
// convention: negative is money in (revenue), positive is money out.
type Transaction struct {
	ID          string
	OccurredAt  time.Time
	Vendor      string
	Description string
	Amount      decimal.Decimal
	Category    string
	Status      string // "auto-approved" or "needs-review"
	Source      string // "manual", "seed", "import"
	CreatedAt   time.Time
}

type Category struct {
	ID   string
	Name string
	Kind string // "income" or "expense"
}

type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationSummary is a listing row: conversation metadata plus a preview
// of its latest message.
type ConversationSummary struct {
	ID           string
	Title        string
	LastMessage  string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" or "assistant"
	Content        string
	CreatedAt      time.Time
}
