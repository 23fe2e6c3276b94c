// Package store defines the persistence ports. Every method that touches
// owned rows takes the owner's user id and scopes the statement with it;
// mutations report whether a row was affected so callers can treat
// "not mine" and "not found" uniformly.
package store

import (
	"context"
	"time"

	"presupuesto/internal/core"
)

// AuditEvent is one recorded mutation, written by the audit worker.
type AuditEvent struct {
	ID         string
	UserID     string
	Entity     string
	EntityID   string
	Action     string
	OccurredAt time.Time
}

type (
	GroupStore interface {
		// CreateGroup inserts a group already stamped with its owner.
		CreateGroup(ctx context.Context, g core.Group) error

		// UpdateGroup applies name/percentage/can_spend for a group owned
		// by userID. Returns false when no row matched.
		UpdateGroup(ctx context.Context, userID, id string, g core.Group) (bool, error)

		// DeleteGroup removes a group owned by userID together with its
		// transactions. Returns false when no row matched.
		DeleteGroup(ctx context.Context, userID, id string) (bool, error)

		// ListGroups returns the user's groups ordered by name ascending.
		ListGroups(ctx context.Context, userID string) ([]core.Group, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, userID, id string, tx core.Transaction) (bool, error)
		DeleteTransaction(ctx context.Context, userID, id string) (bool, error)

		// ListTransactions returns the user's transactions newest first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	ProfileStore interface {
		// EnsureProfile returns the user's profile, creating it with the
		// default general limit on first sight.
		EnsureProfile(ctx context.Context, userID, fullName string, defaultLimitCents int64) (core.Profile, error)

		// UpdateProfile applies name and general limit changes.
		UpdateProfile(ctx context.Context, userID, fullName string, generalLimitCents int64) (bool, error)
	}

	// BalanceReader preserves the derived-balance contract: both reads are
	// pure aggregations over current rows, recomputed on every call.
	BalanceReader interface {
		UserBalances(ctx context.Context, userID string) ([]core.GroupBalance, error)
		UserSummary(ctx context.Context, userID string) (core.Summary, error)
	}

	AuditRecorder interface {
		RecordAuditEvent(ctx context.Context, ev AuditEvent) error
		ListAuditEvents(ctx context.Context, userID string, limit int) ([]AuditEvent, error)
	}
)

// Repository is the full persistence surface a backend must provide.
type Repository interface {
	GroupStore
	TransactionStore
	ProfileStore
	BalanceReader
	AuditRecorder

	Close() error
}
