package clients

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
	Insert(ctx context.Context, c *models.Client) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
	List(ctx context.Context, params models.ListParams) ([]models.Client, int64, error)
	Replace(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Usage counts the records that still reference a client.
type Usage interface {
	CountByClient(ctx context.Context, clientID primitive.ObjectID) (int64, error)
}

// Service implements client and device use cases.
type Service struct {
	store         Store
	interventions Usage
	factures      Usage
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the client service.
func NewService(store Store, interventions, factures Usage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, interventions: interventions, factures: factures, logger: logger, now: time.Now}
}

// Create registers a client and identifies its devices.
func (s *Service) Create(ctx context.Context, c *models.Client) error {
	if err := validate(c); err != nil {
		return err
	}
	now := s.now()
	c.ID = primitive.NilObjectID
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Actif = true
	c.DateCreation = now
	c.UpdatedAt = now
	if c.Appareils == nil {
		c.Appareils = []models.Appareil{}
	}
	for i := range c.Appareils {
		c.Appareils[i].ID = primitive.NilObjectID
	}
	c.AssignAppareilIDs()
	return s.store.Insert(ctx, c)
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of clients.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Client], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Client]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update replaces a client record. Devices sent with an id must already
// belong to the client and keep that id; devices without one are added.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in *models.Client) (*models.Client, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Appareils == nil {
		in.Appareils = current.Appareils
	}
	for _, a := range in.Appareils {
		if a.ID.IsZero() {
			continue
		}
		if _, ok := current.FindAppareil(a.ID); !ok {
			return nil, models.Validationf("appareil %s inconnu pour ce client", a.ID.Hex())
		}
	}
	in.AssignAppareilIDs()

	in.ID = current.ID
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DateCreation = current.DateCreation
	in.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Delete removes a client that no intervention or invoice references.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return err
	}
	for label, usage := range map[string]Usage{"interventions": s.interventions, "factures": s.factures} {
		n, err := usage.CountByClient(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return models.Conflictf("le client a %d %s", n, label)
		}
	}
	return s.store.Delete(ctx, id)
}

// AddAppareil attaches a new device to a client.
func (s *Service) AddAppareil(ctx context.Context, clientID primitive.ObjectID, a models.Appareil) (*models.Appareil, error) {
	if strings.TrimSpace(a.Type) == "" {
		return nil, models.Validationf("le type d'appareil est requis")
	}
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	a.ID = primitive.NewObjectID()
	c.Appareils = append(c.Appareils, a)
	c.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAppareil edits one device in place; its id never changes.
func (s *Service) UpdateAppareil(ctx context.Context, clientID, appareilID primitive.ObjectID, a models.Appareil) (*models.Appareil, error) {
	if strings.TrimSpace(a.Type) == "" {
		return nil, models.Validationf("le type d'appareil est requis")
	}
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(c, appareilID)
	if idx < 0 {
		return nil, models.NotFoundf("appareil %s", appareilID.Hex())
	}
	a.ID = appareilID
	c.Appareils[idx] = a
	c.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, c); err != nil {
		return nil, err
	}
	return &a, nil
}

// RemoveAppareil detaches a device. Interventions keep their snapshot.
func (s *Service) RemoveAppareil(ctx context.Context, clientID, appareilID primitive.ObjectID) error {
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	idx := indexOf(c, appareilID)
	if idx < 0 {
		return models.NotFoundf("appareil %s", appareilID.Hex())
	}
	c.Appareils = append(c.Appareils[:idx], c.Appareils[idx+1:]...)
	c.UpdatedAt = s.now()
	return s.store.Replace(ctx, c)
}

func indexOf(c *models.Client, appareilID primitive.ObjectID) int {
	for i, a := range c.Appareils {
		if a.ID == appareilID {
			return i
		}
	}
	return -1
}

func validate(c *models.Client) error {
	if strings.TrimSpace(c.Nom) == "" {
		return models.Validationf("le nom est requis")
	}
	for _, a := range c.Appareils {
		if strings.TrimSpace(a.Type) == "" {
			return models.Validationf("le type d'appareil est requis")
		}
	}
	return nil
}
