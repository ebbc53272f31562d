package pieces

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// Store is the persistence required by the service.
type Store interface {
	Insert(ctx context.Context, p *models.Piece) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Piece, error)
	List(ctx context.Context, params models.ListParams) ([]models.Piece, int64, error)
	ListAll(ctx context.Context) ([]models.Piece, error)
	Replace(ctx context.Context, p *models.Piece) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Piece, error)
	ListCritical(ctx context.Context) ([]models.Piece, error)
}

// StockMove is a manual stock correction. Exactly one of Delta or Quantite
// must be set.
type StockMove struct {
	Delta    *int   `json:"delta"`
	Quantite *int   `json:"quantite"`
	Motif    string `json:"motif"`
}

// Service implements spare part use cases.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the part service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create registers a new active part.
func (s *Service) Create(ctx context.Context, p *models.Piece) error {
	if err := validate(p); err != nil {
		return err
	}
	now := s.now()
	p.ID = primitive.NilObjectID
	p.Reference = strings.TrimSpace(p.Reference)
	p.Actif = true
	p.DateCreation = now
	p.UpdatedAt = now
	return s.store.Insert(ctx, p)
}

// Get returns one part.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Piece, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of parts.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Piece], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Piece]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// All returns every part, active or not, ordered by reference.
func (s *Service) All(ctx context.Context) ([]models.Piece, error) {
	return s.store.ListAll(ctx)
}

// Update replaces a part description. The stock level is only changed
// through AdjustStock.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in *models.Piece) (*models.Piece, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = current.ID
	in.Reference = strings.TrimSpace(in.Reference)
	in.QuantiteStock = current.QuantiteStock
	in.DateCreation = current.DateCreation
	in.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Delete deactivates a part; its reference stays reserved.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Deactivate(ctx, id)
}

// AdjustStock applies a manual correction and returns the updated part.
func (s *Service) AdjustStock(ctx context.Context, id primitive.ObjectID, move StockMove) (*models.Piece, error) {
	if (move.Delta == nil) == (move.Quantite == nil) {
		return nil, models.Validationf("indiquer soit delta soit quantite")
	}

	delta := 0
	if move.Delta != nil {
		delta = *move.Delta
	} else {
		if *move.Quantite < 0 {
			return nil, models.Validationf("la quantité ne peut pas être négative")
		}
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		delta = *move.Quantite - current.QuantiteStock
	}

	p, err := s.store.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock adjusted",
		zap.String("reference", p.Reference),
		zap.Int("delta", delta),
		zap.Int("stock", p.QuantiteStock),
		zap.String("motif", move.Motif),
	)
	if p.IsCritical() {
		s.logger.Warn("stock critique", zap.String("reference", p.Reference), zap.Int("stock", p.QuantiteStock), zap.Int("minimum", p.QuantiteMinimum))
	}
	return p, nil
}

// Critical returns the active parts below their minimum stock.
func (s *Service) Critical(ctx context.Context) ([]models.Piece, error) {
	return s.store.ListCritical(ctx)
}

func validate(p *models.Piece) error {
	switch {
	case strings.TrimSpace(p.Reference) == "":
		return models.Validationf("la référence est requise")
	case strings.TrimSpace(p.Designation) == "":
		return models.Validationf("la désignation est requise")
	case p.QuantiteStock < 0 || p.QuantiteMinimum < 0:
		return models.Validationf("les quantités ne peuvent pas être négatives")
	case p.PrixAchat < 0 || p.PrixVente < 0:
		return models.Validationf("les prix ne peuvent pas être négatifs")
	}
	return nil
}
