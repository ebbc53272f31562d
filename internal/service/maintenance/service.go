package maintenance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// Store reads and writes the maintenance singleton.
type Store interface {
	Get(ctx context.Context) (*models.Maintenance, error)
	Set(ctx context.Context, actif bool, message, by string) (*models.Maintenance, error)
}

// DefaultMessage is shown when the flag is raised without a message.
const DefaultMessage = "L'application est en maintenance, merci de réessayer plus tard."

// Service exposes the maintenance flag. Reads are cached briefly because the
// flag is checked on every authenticated request.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	cached   *models.Maintenance
	cachedAt time.Time
}

// NewService wires the maintenance service with a cache lifetime of ttl.
func NewService(store Store, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Get returns the flag, creating it on first access.
func (s *Service) Get(ctx context.Context) (*models.Maintenance, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl {
		m := *s.cached
		s.mu.Unlock()
		return &m, nil
	}
	s.mu.Unlock()

	m, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.remember(m)
	return m, nil
}

// Set raises or clears the flag.
func (s *Service) Set(ctx context.Context, actif bool, message, by string) (*models.Maintenance, error) {
	if actif && message == "" {
		message = DefaultMessage
	}
	m, err := s.store.Set(ctx, actif, message, by)
	if err != nil {
		return nil, err
	}
	s.remember(m)
	s.logger.Info("maintenance flag changed", zap.Bool("actif", actif), zap.String("by", by))
	return m, nil
}

func (s *Service) remember(m *models.Maintenance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.cached = &cp
	s.cachedAt = s.now()
}
