// Package sqlite implements the persistence ports on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

// Repository holds the connection pool. Ownership is enforced in SQL:
// every mutation carries a user_id predicate, so a non-owned or missing
// target affects zero rows.
type Repository struct {
	db *sql.DB
}

// signedSum aggregates transactions with the balance sign convention.
const signedSum = `COALESCE(SUM(CASE t.type WHEN 'income' THEN t.amount_cents ELSE -t.amount_cents END), 0)`

// New opens (creating if needed) the database at dbPath and applies
// pending migrations.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateGroup implements store.GroupStore.
func (r *Repository) CreateGroup(ctx context.Context, g core.Group) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, user_id, name, percentage, can_spend, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Percentage, boolToInt(g.CanSpend), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	slog.InfoContext(ctx, "Group saved",
		"group_id", g.ID,
		"user_id", g.UserID,
		"percentage", g.Percentage)
	return nil
}

// UpdateGroup implements store.GroupStore.
func (r *Repository) UpdateGroup(ctx context.Context, userID, id string, g core.Group) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, percentage = ?, can_spend = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.Percentage, boolToInt(g.CanSpend), time.Now().UTC(), id, userID)
	if err != nil {
		return false, fmt.Errorf("update group: %w", err)
	}
	return affected(res)
}

// DeleteGroup implements store.GroupStore. Associated transactions go with
// the group via ON DELETE CASCADE.
func (r *Repository) DeleteGroup(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM groups WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}
	return affected(res)
}

// ListGroups implements store.GroupStore.
func (r *Repository) ListGroups(ctx context.Context, userID string) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, percentage, can_spend, created_at, updated_at
		FROM groups
		WHERE user_id = ?
		ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		var g core.Group
		var canSpend int
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Percentage, &canSpend, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.CanSpend = canSpend != 0
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// CreateTransaction implements store.TransactionStore.
func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, group_id, amount_cents, type, concept, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, nullable(tx.GroupID), tx.Amount.Cents, string(tx.Type), tx.Concept, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)
	return nil
}

// UpdateTransaction implements store.TransactionStore.
func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, tx core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET group_id = ?, amount_cents = ?, type = ?, concept = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		nullable(tx.GroupID), tx.Amount.Cents, string(tx.Type), tx.Concept, time.Now().UTC(), id, userID)
	if err != nil {
		return false, fmt.Errorf("update transaction: %w", err)
	}
	return affected(res)
}

// DeleteTransaction implements store.TransactionStore.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res)
}

// ListTransactions implements store.TransactionStore.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, group_id, amount_cents, type, concept, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var groupID sql.NullString
		var txType string
		if err := rows.Scan(&tx.ID, &tx.UserID, &groupID, &tx.Amount.Cents, &txType, &tx.Concept, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.GroupID = groupID.String
		tx.Type = core.TransactionType(txType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// EnsureProfile implements store.ProfileStore.
func (r *Repository) EnsureProfile(ctx context.Context, userID, fullName string, defaultLimitCents int64) (core.Profile, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profile (user_id, full_name, general_limit_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, fullName, defaultLimitCents, now, now)
	if err != nil {
		return core.Profile{}, fmt.Errorf("ensure profile: %w", err)
	}

	var p core.Profile
	err = r.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, general_limit_cents, created_at, updated_at
		FROM user_profile WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.FullName, &p.GeneralLimit.Cents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// UpdateProfile implements store.ProfileStore.
func (r *Repository) UpdateProfile(ctx context.Context, userID, fullName string, generalLimitCents int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_profile
		SET full_name = ?, general_limit_cents = ?, updated_at = ?
		WHERE user_id = ?`,
		fullName, generalLimitCents, time.Now().UTC(), userID)
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	return affected(res)
}

// UserBalances implements store.BalanceReader: one GROUP BY over current
// rows materializes per-group nets, then the derivation rules apply.
func (r *Repository) UserBalances(ctx context.Context, userID string) ([]core.GroupBalance, error) {
	limit, err := r.generalLimit(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.user_id, g.name, g.percentage, g.can_spend, g.created_at, g.updated_at, `+signedSum+`
		FROM groups g
		LEFT JOIN transactions t ON t.group_id = g.id
		WHERE g.user_id = ?
		GROUP BY g.id
		ORDER BY g.name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate group balances: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	nets := make(map[string]int64)
	for rows.Next() {
		var g core.Group
		var canSpend int
		var net int64
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Percentage, &canSpend, &g.CreatedAt, &g.UpdatedAt, &net); err != nil {
			return nil, fmt.Errorf("scan group balance: %w", err)
		}
		g.CanSpend = canSpend != 0
		groups = append(groups, g)
		nets[g.ID] = net
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group balances: %w", err)
	}

	return core.ComputeBalances(limit, groups, nets), nil
}

// UserSummary implements store.BalanceReader. Ungrouped transactions fold
// into the total availability without touching any group ceiling.
func (r *Repository) UserSummary(ctx context.Context, userID string) (core.Summary, error) {
	balances, err := r.UserBalances(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}

	limit, err := r.generalLimit(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}

	var ungrouped int64
	err = r.db.QueryRowContext(ctx, `
		SELECT `+signedSum+`
		FROM transactions t
		WHERE t.user_id = ? AND t.group_id IS NULL`, userID).Scan(&ungrouped)
	if err != nil {
		return core.Summary{}, fmt.Errorf("aggregate ungrouped net: %w", err)
	}

	return core.ComputeSummary(limit, balances, ungrouped), nil
}

// RecordAuditEvent implements store.AuditRecorder.
func (r *Repository) RecordAuditEvent(ctx context.Context, ev store.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, user_id, entity, entity_id, action, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.Entity, ev.EntityID, ev.Action, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents implements store.AuditRecorder.
func (r *Repository) ListAuditEvents(ctx context.Context, userID string, limit int) ([]store.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, entity, entity_id, action, occurred_at
		FROM audit_log
		WHERE user_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []store.AuditEvent
	for rows.Next() {
		var ev store.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Entity, &ev.EntityID, &ev.Action, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func (r *Repository) generalLimit(ctx context.Context, userID string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT general_limit_cents FROM user_profile WHERE user_id = ?`, userID).Scan(&cents)
	if err == sql.ErrNoRows {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("load general limit: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
