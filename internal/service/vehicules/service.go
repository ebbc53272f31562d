package vehicules

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
	Insert(ctx context.Context, v *models.Vehicule) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicule, error)
	List(ctx context.Context, params models.ListParams) ([]models.Vehicule, int64, error)
	ListActive(ctx context.Context) ([]models.Vehicule, error)
	Replace(ctx context.Context, v *models.Vehicule) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddDocument(ctx context.Context, id primitive.ObjectID, f models.Fichier) error
}

// VehiculeStats summarises the logs of one vehicle.
type VehiculeStats struct {
	ID                primitive.ObjectID `json:"id"`
	Immatriculation   string             `json:"immatriculation"`
	KilometrageActuel int                `json:"kilometrageActuel"`
	Distance          int                `json:"distance"`
	Litres            float64            `json:"litres"`
	Montant           float64            `json:"montant"`
	Pleins            int                `json:"pleins"`
}

// Service implements fleet use cases.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the fleet service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create registers an active vehicle.
func (s *Service) Create(ctx context.Context, v *models.Vehicule) error {
	if err := validate(v); err != nil {
		return err
	}
	now := s.now()
	v.ID = primitive.NilObjectID
	v.Immatriculation = normalizePlate(v.Immatriculation)
	v.Actif = true
	v.DateCreation = now
	v.UpdatedAt = now
	if v.HistoriqueKilometrage == nil {
		v.HistoriqueKilometrage = []models.ReleveKilometrage{}
	}
	if v.HistoriqueCarburant == nil {
		v.HistoriqueCarburant = []models.PleinCarburant{}
	}
	v.ComputeDerived()
	return s.store.Insert(ctx, v)
}

// Get returns one vehicle.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Vehicule, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of vehicles.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Vehicule], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Vehicule]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update replaces the vehicle description. The logs and documents are kept.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in *models.Vehicule) (*models.Vehicule, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ID = current.ID
	in.Immatriculation = normalizePlate(in.Immatriculation)
	in.HistoriqueKilometrage = current.HistoriqueKilometrage
	in.HistoriqueCarburant = current.HistoriqueCarburant
	in.Documents = current.Documents
	in.DateCreation = current.DateCreation
	in.UpdatedAt = s.now()
	in.ComputeDerived()
	if err := s.store.Replace(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Delete removes a vehicle.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id)
}

// AddKilometrage appends an odometer reading and refreshes the cached value.
func (s *Service) AddKilometrage(ctx context.Context, id primitive.ObjectID, r models.ReleveKilometrage) (*models.Vehicule, error) {
	if r.Kilometrage < 0 {
		return nil, models.Validationf("le kilométrage ne peut pas être négatif")
	}
	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Date.IsZero() {
		r.Date = s.now()
	}
	v.HistoriqueKilometrage = append(v.HistoriqueKilometrage, r)
	return s.save(ctx, v)
}

// AddCarburant appends a fuel purchase. A purchase carrying an odometer value
// also records a reading.
func (s *Service) AddCarburant(ctx context.Context, id primitive.ObjectID, p models.PleinCarburant) (*models.Vehicule, error) {
	if p.Litres <= 0 || p.Montant < 0 || p.Kilometrage < 0 {
		return nil, models.Validationf("plein de carburant invalide")
	}
	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Date.IsZero() {
		p.Date = s.now()
	}
	v.HistoriqueCarburant = append(v.HistoriqueCarburant, p)
	if p.Kilometrage > 0 {
		v.HistoriqueKilometrage = append(v.HistoriqueKilometrage, models.ReleveKilometrage{
			Date:        p.Date,
			Kilometrage: p.Kilometrage,
			Note:        "plein",
		})
	}
	return s.save(ctx, v)
}

// AttachDocument records an uploaded document on the vehicle.
func (s *Service) AttachDocument(ctx context.Context, id primitive.ObjectID, f models.Fichier) error {
	return s.store.AddDocument(ctx, id, f)
}

// Stats returns fuel spend and distance for every active vehicle.
func (s *Service) Stats(ctx context.Context) ([]VehiculeStats, error) {
	vehicules, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]VehiculeStats, 0, len(vehicules))
	for i := range vehicules {
		out = append(out, StatsOf(&vehicules[i]))
	}
	return out, nil
}

// StatsOf summarises the logs of v. Distance is the spread between the
// lowest and highest recorded odometer values.
func StatsOf(v *models.Vehicule) VehiculeStats {
	st := VehiculeStats{
		ID:                v.ID,
		Immatriculation:   v.Immatriculation,
		KilometrageActuel: v.KilometrageActuel,
		Pleins:            len(v.HistoriqueCarburant),
	}
	st.Litres, st.Montant = v.FuelTotals()
	if len(v.HistoriqueKilometrage) > 0 {
		lo, hi := v.HistoriqueKilometrage[0].Kilometrage, v.HistoriqueKilometrage[0].Kilometrage
		for _, r := range v.HistoriqueKilometrage[1:] {
			lo = min(lo, r.Kilometrage)
			hi = max(hi, r.Kilometrage)
		}
		st.Distance = hi - lo
	}
	return st
}

func (s *Service) save(ctx context.Context, v *models.Vehicule) (*models.Vehicule, error) {
	v.UpdatedAt = s.now()
	v.ComputeDerived()
	if err := s.store.Replace(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func normalizePlate(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

func validate(v *models.Vehicule) error {
	if strings.TrimSpace(v.Immatriculation) == "" {
		return models.Validationf("l'immatriculation est requise")
	}
	if v.Annee < 0 {
		return models.Validationf("année invalide")
	}
	return nil
}
