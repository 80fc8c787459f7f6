package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/apperr"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/events"
	"github.com/bagstore/storefront/internal/metrics"
	"github.com/bagstore/storefront/internal/repository"
)

const (
	OrderNumberPrefix  = "ORD"
	ReturnNumberPrefix = "RET"
)

type Config struct {
	ReturnWindow       time.Duration
	LegacyReturnWindow time.Duration
	Policy             TransitionPolicy
	TxAttempts         int
	TxTimeout          time.Duration
	EventsTopic        string
}

func DefaultConfig() Config {
	return Config{
		ReturnWindow:       7 * 24 * time.Hour,
		LegacyReturnWindow: 30 * 24 * time.Hour,
		Policy:             DefaultTransitionPolicy(),
		TxAttempts:         3,
		TxTimeout:          15 * time.Second,
		EventsTopic:        "storefront_events",
	}
}

// Service runs the order and return workflows. Every state change happens
// in one database transaction together with its audit entries and outbox
// events.
type Service struct {
	db      db.DB
	repos   Repositories
	blobs   BlobStore
	cache   ViewCache
	cfg     Config
	logger  *zap.Logger
	timeNow func() time.Time
}

func NewService(database db.DB, repos Repositories, blobs BlobStore, cache ViewCache, cfg Config, logger *zap.Logger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      database,
		repos:   repos,
		blobs:   blobs,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		timeNow: time.Now,
	}
}

// inTx runs fn detached from the caller's cancellation so an aborted
// request never leaves a transaction half done. TxTimeout still bounds it.
func (s *Service) inTx(ctx context.Context, operation string, fn func(tx db.Tx) error) error {
	txCtx := context.WithoutCancel(ctx)
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(txCtx, s.cfg.TxTimeout)
		defer cancel()
	}

	err := db.WithTx(txCtx, s.db, s.cfg.TxAttempts, fn)
	if err == nil {
		return nil
	}

	metrics.OperationErrorsTotal.WithLabelValues(operation).Inc()
	if _, ok := apperr.As(err); ok {
		return err
	}
	if db.IsRetryable(err) {
		s.logger.Warn("transaction gave up on lock", zap.String("operation", operation), zap.Error(err))
		busy := *ErrOrderBusy
		busy.Err = err
		return &busy
	}
	s.logger.Error("transaction failed", zap.String("operation", operation), zap.Error(err))
	return apperr.Wrap(fmt.Errorf("%s: %w", operation, err))
}

func FormatNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

func (s *Service) nextNumber(ctx context.Context, tx db.Tx, prefix string, now time.Time) (string, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	seq, err := s.repos.Sequences.NextTx(ctx, tx, prefix, day)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s number: %w", prefix, err)
	}
	return FormatNumber(prefix, day, seq), nil
}

func (s *Service) enqueue(ctx context.Context, tx db.Tx, t events.Type, payload any) error {
	env, err := events.New(t, s.timeNow(), payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	task := &repository.OutboxTask{ID: env.ID, Topic: s.cfg.EventsTopic, Payload: body}
	if err := s.repos.Outbox.CreateTx(ctx, tx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", t, err)
	}
	return nil
}

func (s *Service) customer(ctx context.Context, userID int64) (events.Customer, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return events.Customer{ID: userID}, nil
		}
		return events.Customer{}, fmt.Errorf("failed to load customer %d: %w", userID, err)
	}
	return events.Customer{ID: u.ID, Name: fullName(u), Email: u.Email}, nil
}

func (s *Service) adminEmails(ctx context.Context) ([]string, error) {
	admins, err := s.repos.Users.ListByRole(ctx, string(RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	emails := make([]string, 0, len(admins))
	for _, a := range admins {
		emails = append(emails, a.Email)
	}
	return emails, nil
}

func (s *Service) requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

func fullName(u *repository.User) string {
	return Actor{FirstName: u.FirstName, LastName: u.LastName}.Name()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
