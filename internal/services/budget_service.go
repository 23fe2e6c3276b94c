// Package services holds the authorization-scoped operations behind the
// HTTP layer. Every mutation follows the same path: auth check, input
// validation, scoped store call, then a best-effort event publish.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
)

// EventPublisher is the slice of the AMQP client the service needs.
// Nil publisher means events are disabled.
type EventPublisher interface {
	PublishBudgetEvent(ctx context.Context, ev *amqp.BudgetEvent) error
}

// GroupInput is the user-supplied part of a group.
type GroupInput struct {
	Name       string
	Percentage float64
	CanSpend   bool
}

// TransactionInput is the user-supplied part of a transaction.
type TransactionInput struct {
	GroupID string
	Amount  core.Money
	Type    core.TransactionType
	Concept string
}

// ProfileInput is the user-supplied part of a profile update.
type ProfileInput struct {
	FullName          string
	Email             string
	GeneralLimitCents int64
}

type BudgetService struct {
	repo         store.Repository
	publisher    EventPublisher
	logger       *log.Logger
	defaultLimit int64

	// onMutation runs after every successful write; the HTTP layer hooks
	// cache invalidation here.
	onMutation func(userID string)
}

type BudgetOption func(*BudgetService)

// WithPublisher enables event publishing for mutations.
func WithPublisher(p EventPublisher) BudgetOption {
	return func(s *BudgetService) { s.publisher = p }
}

// WithMutationHook registers a callback invoked with the owner's id after
// every successful mutation.
func WithMutationHook(fn func(userID string)) BudgetOption {
	return func(s *BudgetService) { s.onMutation = fn }
}

// WithDefaultLimit sets the general limit assigned to first-seen profiles.
func WithDefaultLimit(cents int64) BudgetOption {
	return func(s *BudgetService) { s.defaultLimit = cents }
}

func NewBudgetService(repo store.Repository, logger *log.Logger, opts ...BudgetOption) *BudgetService {
	s := &BudgetService{
		repo:         repo,
		logger:       logger.WithComponent(log.ComponentBudget),
		defaultLimit: 500_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroup validates and inserts a group for userID, returning its id.
func (s *BudgetService) CreateGroup(ctx context.Context, userID string, in GroupInput) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}
	g := core.Group{
		Name:       in.Name,
		Percentage: in.Percentage,
		CanSpend:   in.CanSpend,
	}
	if errs := core.ValidateGroup(g); errs.HasErrors() {
		return "", &ValidationError{Fields: errs}
	}

	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.UserID = userID
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}

	s.afterMutation(ctx, userID, amqp.EntityGroup, g.ID, amqp.ActionCreated)
	return g.ID, nil
}

// UpdateGroup applies a validated update to a group owned by userID.
func (s *BudgetService) UpdateGroup(ctx context.Context, userID, id string, in GroupInput) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	g := core.Group{
		Name:       in.Name,
		Percentage: in.Percentage,
		CanSpend:   in.CanSpend,
	}
	if errs := core.ValidateGroup(g); errs.HasErrors() {
		return &ValidationError{Fields: errs}
	}

	ok, err := s.repo.UpdateGroup(ctx, userID, id, g)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterMutation(ctx, userID, amqp.EntityGroup, id, amqp.ActionUpdated)
	return nil
}

// DeleteGroup removes a group owned by userID; its transactions cascade
// away in the store.
func (s *BudgetService) DeleteGroup(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	ok, err := s.repo.DeleteGroup(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterMutation(ctx, userID, amqp.EntityGroup, id, amqp.ActionDeleted)
	return nil
}

// ListGroups returns the user's groups ordered by name.
func (s *BudgetService) ListGroups(ctx context.Context, userID string) ([]core.Group, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	groups, err := s.repo.ListGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CreateTransaction validates and inserts a transaction for userID.
func (s *BudgetService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}
	tx := core.Transaction{
		GroupID: in.GroupID,
		Amount:  in.Amount,
		Type:    in.Type,
		Concept: in.Concept,
	}
	if errs := core.ValidateTransaction(tx); errs.HasErrors() {
		return "", &ValidationError{Fields: errs}
	}

	now := time.Now().UTC()
	tx.ID = uuid.NewString()
	tx.UserID = userID
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	s.afterMutation(ctx, userID, amqp.EntityTransaction, tx.ID, amqp.ActionCreated)
	return tx.ID, nil
}

// UpdateTransaction applies a validated update to a transaction owned by
// userID.
func (s *BudgetService) UpdateTransaction(ctx context.Context, userID, id string, in TransactionInput) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	tx := core.Transaction{
		GroupID: in.GroupID,
		Amount:  in.Amount,
		Type:    in.Type,
		Concept: in.Concept,
	}
	if errs := core.ValidateTransaction(tx); errs.HasErrors() {
		return &ValidationError{Fields: errs}
	}

	ok, err := s.repo.UpdateTransaction(ctx, userID, id, tx)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterMutation(ctx, userID, amqp.EntityTransaction, id, amqp.ActionUpdated)
	return nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *BudgetService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	ok, err := s.repo.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterMutation(ctx, userID, amqp.EntityTransaction, id, amqp.ActionDeleted)
	return nil
}

// ListTransactions returns the user's transactions newest first.
func (s *BudgetService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Balances returns the per-group derived balances, recomputed from
// current rows on every call.
func (s *BudgetService) Balances(ctx context.Context, userID string) ([]core.GroupBalance, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	balances, err := s.repo.UserBalances(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user balances: %w", err)
	}
	return balances, nil
}

// Summary returns the user-wide derived summary.
func (s *BudgetService) Summary(ctx context.Context, userID string) (core.Summary, error) {
	if userID == "" {
		return core.Summary{}, ErrUnauthenticated
	}
	summary, err := s.repo.UserSummary(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("user summary: %w", err)
	}
	return summary, nil
}

// Profile returns the user's profile, creating it on first sight.
func (s *BudgetService) Profile(ctx context.Context, userID, fullName string) (core.Profile, error) {
	if userID == "" {
		return core.Profile{}, ErrUnauthenticated
	}
	p, err := s.repo.EnsureProfile(ctx, userID, fullName, s.defaultLimit)
	if err != nil {
		return core.Profile{}, fmt.Errorf("ensure profile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies a validated profile update.
func (s *BudgetService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if errs := core.ValidateProfile(in.FullName, in.Email); errs.HasErrors() {
		return &ValidationError{Fields: errs}
	}
	if in.GeneralLimitCents <= 0 {
		return &ValidationError{Fields: core.FieldErrors{"general_limit": "general limit must be positive"}}
	}

	ok, err := s.repo.UpdateProfile(ctx, userID, in.FullName, in.GeneralLimitCents)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterMutation(ctx, userID, amqp.EntityProfile, userID, amqp.ActionUpdated)
	return nil
}

// AuditTrail returns the user's most recent audit events.
func (s *BudgetService) AuditTrail(ctx context.Context, userID string, limit int) ([]store.AuditEvent, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	events, err := s.repo.ListAuditEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

// afterMutation fires the cache hook and publishes the event. Publish
// failures are logged and swallowed: the local write already succeeded.
func (s *BudgetService) afterMutation(ctx context.Context, userID, entity, entityID, action string) {
	if s.onMutation != nil {
		s.onMutation(userID)
	}
	if s.publisher == nil {
		return
	}
	ev := amqp.NewBudgetEvent(userID, entity, entityID, action)
	if err := s.publisher.PublishBudgetEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish budget event",
			"error", err,
			log.FieldUserID, userID,
			"entity", entity,
			"action", action)
	}
}
