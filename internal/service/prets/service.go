package prets

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// DeviceStore persists loaner devices.
type DeviceStore interface {
	Insert(ctx context.Context, a *models.AppareilPret) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AppareilPret, error)
	List(ctx context.Context, params models.ListParams) ([]models.AppareilPret, int64, error)
	Replace(ctx context.Context, a *models.AppareilPret) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.AppareilPretStatut, etat string) (bool, error)
}

// LoanStore persists loans.
type LoanStore interface {
	Insert(ctx context.Context, p *models.Pret) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Pret, error)
	List(ctx context.Context, params models.ListParams) ([]models.Pret, int64, error)
	Replace(ctx context.Context, p *models.Pret) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountOpenForDevice(ctx context.Context, deviceID primitive.ObjectID) (int64, error)
	MarkLate(ctx context.Context, now time.Time) (int64, error)
}

// ClientFinder checks that the borrowing client exists.
type ClientFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

// LoanInput opens a loan.
type LoanInput struct {
	AppareilPretID   string     `json:"appareilPretId" binding:"required"`
	ClientID         string     `json:"clientId" binding:"required"`
	InterventionID   string     `json:"interventionId"`
	DateDebut        *time.Time `json:"dateDebut"`
	DateRetourPrevue *time.Time `json:"dateRetourPrevue"`
	EtatDepart       string     `json:"etatDepart"`
	Notes            string     `json:"notes"`
}

// ReturnInput closes a loan.
type ReturnInput struct {
	DateRetourEffectif *time.Time `json:"dateRetourEffectif"`
	EtatRetour         string     `json:"etatRetour"`
	Notes              string     `json:"notes"`
}

// Service implements loaner device and loan use cases.
type Service struct {
	devices DeviceStore
	loans   LoanStore
	clients ClientFinder
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the loan service.
func NewService(devices DeviceStore, loans LoanStore, clients ClientFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{devices: devices, loans: loans, clients: clients, logger: logger, now: time.Now}
}

// CreateDevice registers a loaner device, available by default.
func (s *Service) CreateDevice(ctx context.Context, a *models.AppareilPret) error {
	if strings.TrimSpace(a.NumeroSerie) == "" {
		return models.Validationf("numeroSerie est requis")
	}
	if a.Statut == "" {
		a.Statut = models.AppareilDisponible
	}
	if !a.Statut.Valid() {
		return models.Validationf("statut inconnu: %s", a.Statut)
	}
	now := s.now()
	a.ID = primitive.NilObjectID
	a.DateCreation = now
	a.UpdatedAt = now
	return s.devices.Insert(ctx, a)
}

// GetDevice returns one loaner device.
func (s *Service) GetDevice(ctx context.Context, id primitive.ObjectID) (*models.AppareilPret, error) {
	return s.devices.FindByID(ctx, id)
}

// ListDevices returns a page of loaner devices.
func (s *Service) ListDevices(ctx context.Context, params models.ListParams) (models.Page[models.AppareilPret], error) {
	params = params.Normalize()
	items, total, err := s.devices.List(ctx, params)
	if err != nil {
		return models.Page[models.AppareilPret]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// UpdateDevice replaces a device description. Its loan statut is owned by
// the loan workflow and cannot be set to or from Prêté here.
func (s *Service) UpdateDevice(ctx context.Context, id primitive.ObjectID, in *models.AppareilPret) (*models.AppareilPret, error) {
	current, err := s.devices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	statut := in.Statut
	if statut == "" {
		statut = current.Statut
	}
	if !statut.Valid() {
		return nil, models.Validationf("statut inconnu: %s", statut)
	}
	if statut != current.Statut && (statut == models.AppareilPrete || current.Statut == models.AppareilPrete) {
		return nil, models.Conflictf("le statut Prêté est géré par les prêts")
	}

	in.ID = current.ID
	in.Statut = statut
	in.DateCreation = current.DateCreation
	in.UpdatedAt = s.now()
	if err := s.devices.Replace(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// DeleteDevice removes a device that has no open loan.
func (s *Service) DeleteDevice(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.devices.FindByID(ctx, id); err != nil {
		return err
	}
	open, err := s.loans.CountOpenForDevice(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return models.Conflictf("l'appareil a un prêt en cours")
	}
	return s.devices.Delete(ctx, id)
}

// Lend opens a loan. The device flips from Disponible to Prêté atomically;
// any other device statut is a conflict.
func (s *Service) Lend(ctx context.Context, in LoanInput) (*models.Pret, error) {
	deviceID, err := primitive.ObjectIDFromHex(in.AppareilPretID)
	if err != nil {
		return nil, models.Validationf("appareilPretId invalide")
	}
	clientID, err := primitive.ObjectIDFromHex(in.ClientID)
	if err != nil {
		return nil, models.Validationf("clientId invalide")
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Pret{
		AppareilPretID:   deviceID,
		ClientID:         clientID,
		DateDebut:        now,
		DateRetourPrevue: in.DateRetourPrevue,
		EtatDepart:       in.EtatDepart,
		Notes:            in.Notes,
		DateCreation:     now,
		UpdatedAt:        now,
	}
	if in.DateDebut != nil {
		p.DateDebut = *in.DateDebut
	}
	if p.DateRetourPrevue != nil && p.DateRetourPrevue.Before(p.DateDebut) {
		return nil, models.Validationf("la date de retour prévue précède le début du prêt")
	}
	if in.InterventionID != "" {
		iid, err := primitive.ObjectIDFromHex(in.InterventionID)
		if err != nil {
			return nil, models.Validationf("interventionId invalide")
		}
		p.InterventionID = &iid
	}

	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	flipped, err := s.devices.Transition(ctx, deviceID, models.AppareilDisponible, models.AppareilPrete, "")
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, models.Conflictf("l'appareil %s n'est pas disponible", device.NumeroSerie)
	}
	if p.EtatDepart == "" {
		p.EtatDepart = device.Etat
	}

	p.ComputeStatut(now)
	if err := s.loans.Insert(ctx, p); err != nil {
		if _, rerr := s.devices.Transition(ctx, deviceID, models.AppareilPrete, models.AppareilDisponible, ""); rerr != nil {
			s.logger.Error("failed to release device after loan insert failure",
				zap.String("device_id", deviceID.Hex()), zap.Error(rerr))
		}
		return nil, err
	}

	s.logger.Info("loan opened", zap.String("pret_id", p.ID.Hex()), zap.String("device_id", deviceID.Hex()))
	return p, nil
}

// Return closes a loan and makes the device available again with the
// condition observed on return.
func (s *Service) Return(ctx context.Context, id primitive.ObjectID, in ReturnInput) (*models.Pret, error) {
	p, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsReturned() {
		return nil, models.Conflictf("ce prêt est déjà clôturé")
	}

	now := s.now()
	returned := now
	if in.DateRetourEffectif != nil {
		returned = *in.DateRetourEffectif
	}
	if returned.Before(p.DateDebut) {
		return nil, models.Validationf("la date de retour précède le début du prêt")
	}
	p.DateRetourEffectif = &returned
	p.EtatRetour = in.EtatRetour
	if in.Notes != "" {
		p.Notes = in.Notes
	}
	p.UpdatedAt = now
	p.ComputeStatut(now)

	if err := s.loans.Replace(ctx, p); err != nil {
		return nil, err
	}

	flipped, err := s.devices.Transition(ctx, p.AppareilPretID, models.AppareilPrete, models.AppareilDisponible, p.EtatRetour)
	if err != nil {
		return nil, err
	}
	if !flipped {
		s.logger.Warn("returned device was not marked as loaned", zap.String("device_id", p.AppareilPretID.Hex()))
	}
	return p, nil
}

// Get returns one loan with its statut projected at the current time.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Pret, error) {
	p, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ComputeStatut(s.now())
	return p, nil
}

// List returns a page of loans with projected statuts.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Pret], error) {
	params = params.Normalize()
	items, total, err := s.loans.List(ctx, params)
	if err != nil {
		return models.Page[models.Pret]{}, err
	}
	now := s.now()
	for i := range items {
		items[i].ComputeStatut(now)
	}
	return models.NewPage(items, params, total), nil
}

// Update edits the planning fields of a loan. The statut is always
// recomputed, whatever the caller sent.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in LoanInput) (*models.Pret, error) {
	p, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DateDebut != nil {
		p.DateDebut = *in.DateDebut
	}
	p.DateRetourPrevue = in.DateRetourPrevue
	if p.DateRetourPrevue != nil && p.DateRetourPrevue.Before(p.DateDebut) {
		return nil, models.Validationf("la date de retour prévue précède le début du prêt")
	}
	if in.EtatDepart != "" {
		p.EtatDepart = in.EtatDepart
	}
	p.Notes = in.Notes

	now := s.now()
	p.UpdatedAt = now
	p.ComputeStatut(now)
	if err := s.loans.Replace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a loan. An open loan releases its device.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	p, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.loans.Delete(ctx, id); err != nil {
		return err
	}
	if !p.IsReturned() {
		if _, err := s.devices.Transition(ctx, p.AppareilPretID, models.AppareilPrete, models.AppareilDisponible, ""); err != nil {
			s.logger.Error("failed to release device of deleted loan", zap.String("device_id", p.AppareilPretID.Hex()), zap.Error(err))
		}
	}
	return nil
}

// RefreshLate persists the Retard statut on loans past their due date.
func (s *Service) RefreshLate(ctx context.Context) (int64, error) {
	return s.loans.MarkLate(ctx, s.now())
}
