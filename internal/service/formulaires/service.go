package formulaires

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
	Insert(ctx context.Context, f *models.Formulaire) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Formulaire, error)
	List(ctx context.Context, params models.ListParams) ([]models.Formulaire, int64, error)
	Replace(ctx context.Context, f *models.Formulaire) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// StatutNouveau is given to forms created without a statut.
const StatutNouveau = "Nouveau"

// Service implements internal form use cases.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the form service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create stores a form authored by auteur.
func (s *Service) Create(ctx context.Context, f *models.Formulaire, auteur primitive.ObjectID) error {
	if err := validate(f); err != nil {
		return err
	}
	now := s.now()
	f.ID = primitive.NilObjectID
	f.AuteurID = auteur
	if f.Statut == "" {
		f.Statut = StatutNouveau
	}
	if f.Donnees == nil {
		f.Donnees = map[string]any{}
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return s.store.Insert(ctx, f)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Formulaire, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Formulaire], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Formulaire]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update replaces the form content. The author and creation date are kept.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in *models.Formulaire) (*models.Formulaire, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = current.ID
	in.AuteurID = current.AuteurID
	in.CreatedAt = current.CreatedAt
	if in.Statut == "" {
		in.Statut = current.Statut
	}
	if in.Donnees == nil {
		in.Donnees = current.Donnees
	}
	in.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id)
}

func validate(f *models.Formulaire) error {
	if strings.TrimSpace(f.Type) == "" {
		return models.Validationf("le type est requis")
	}
	if strings.TrimSpace(f.Titre) == "" {
		return models.Validationf("le titre est requis")
	}
	return nil
}
