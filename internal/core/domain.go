package core

import (
	"errors"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	PEN Currency = "PEN"
	USD Currency = "USD"
)

type (
	TransactionType string

	Currency string

	Money struct {
		Cents int64
	}

	// Group is a budget category claiming a percentage of the user's
	// general limit.
	Group struct {
		ID         string
		UserID     string
		Name       string
		Percentage float64
		CanSpend   bool
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Transaction is a single monetary movement, optionally tagged to a
	// group. An empty GroupID means the transaction is ungrouped.
	Transaction struct {
		ID        string
		UserID    string
		GroupID   string
		Amount    Money
		Type      TransactionType
		Concept   string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Profile holds per-user settings, including the general limit every
	// group percentage is taken from.
	Profile struct {
		UserID       string
		FullName     string
		GeneralLimit Money
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyConcept    = errors.New("empty concept")
	ErrEmptyGroupName  = errors.New("empty group name")
	ErrInvalidPercent  = errors.New("percentage out of range")
	ErrInvalidCurrency = errors.New("unsupported currency")
)

// Valid reports whether the type is one of the two known kinds.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Signed returns the amount in cents with the sign convention used by
// balance derivation: income counts positive, expense negative.
func (tx Transaction) Signed() int64 {
	if tx.Type == Expense {
		return -tx.Amount.Cents
	}
	return tx.Amount.Cents
}

func (c Currency) Valid() bool {
	return c == PEN || c == USD
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
