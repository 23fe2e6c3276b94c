// Package memory implements the persistence ports with in-process maps.
// Useful for tests and for running without a database file.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/store"
)

// Repository keeps everything behind one mutex; contention is irrelevant
// at the scale this backend is meant for.
type Repository struct {
	mu           sync.RWMutex
	groups       map[string]core.Group
	transactions map[string]core.Transaction
	profiles     map[string]core.Profile
	audit        []store.AuditEvent
}

func New() *Repository {
	return &Repository{
		groups:       make(map[string]core.Group),
		transactions: make(map[string]core.Transaction),
		profiles:     make(map[string]core.Profile),
	}
}

func (r *Repository) Close() error { return nil }

func (r *Repository) CreateGroup(_ context.Context, g core.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID] = g
	return nil
}

func (r *Repository) UpdateGroup(_ context.Context, userID, id string, g core.Group) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	existing.Name = g.Name
	existing.Percentage = g.Percentage
	existing.CanSpend = g.CanSpend
	existing.UpdatedAt = time.Now().UTC()
	r.groups[id] = existing
	return true, nil
}

func (r *Repository) DeleteGroup(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(r.groups, id)
	for txID, tx := range r.transactions {
		if tx.GroupID == id {
			delete(r.transactions, txID)
		}
	}
	return true, nil
}

func (r *Repository) ListGroups(_ context.Context, userID string) ([]core.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Group
	for _, g := range r.groups {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	core.SortGroupsByName(out)
	return out, nil
}

func (r *Repository) CreateTransaction(_ context.Context, tx core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[tx.ID] = tx
	return nil
}

func (r *Repository) UpdateTransaction(_ context.Context, userID, id string, tx core.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.transactions[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	existing.GroupID = tx.GroupID
	existing.Amount = tx.Amount
	existing.Type = tx.Type
	existing.Concept = tx.Concept
	existing.UpdatedAt = time.Now().UTC()
	r.transactions[id] = existing
	return true, nil
}

func (r *Repository) DeleteTransaction(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.transactions[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(r.transactions, id)
	return true, nil
}

func (r *Repository) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Transaction
	for _, tx := range r.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	core.SortTransactionsNewestFirst(out)
	return out, nil
}

func (r *Repository) EnsureProfile(_ context.Context, userID, fullName string, defaultLimitCents int64) (core.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	now := time.Now().UTC()
	p := core.Profile{
		UserID:       userID,
		FullName:     fullName,
		GeneralLimit: core.Money{Cents: defaultLimitCents},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.profiles[userID] = p
	return p, nil
}

func (r *Repository) UpdateProfile(_ context.Context, userID, fullName string, generalLimitCents int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return false, nil
	}
	p.FullName = fullName
	p.GeneralLimit = core.Money{Cents: generalLimitCents}
	p.UpdatedAt = time.Now().UTC()
	r.profiles[userID] = p
	return true, nil
}

func (r *Repository) UserBalances(ctx context.Context, userID string) ([]core.GroupBalance, error) {
	groups, err := r.ListGroups(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	limit := r.profiles[userID].GeneralLimit
	r.mu.RUnlock()

	nets, _ := core.NetByGroup(txs)
	return core.ComputeBalances(limit, groups, nets), nil
}

func (r *Repository) UserSummary(ctx context.Context, userID string) (core.Summary, error) {
	balances, err := r.UserBalances(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	txs, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}

	r.mu.RLock()
	limit := r.profiles[userID].GeneralLimit
	r.mu.RUnlock()

	_, ungrouped := core.NetByGroup(txs)
	return core.ComputeSummary(limit, balances, ungrouped), nil
}

func (r *Repository) RecordAuditEvent(_ context.Context, ev store.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, ev)
	return nil
}

func (r *Repository) ListAuditEvents(_ context.Context, userID string, limit int) ([]store.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []store.AuditEvent
	for _, ev := range r.audit {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
