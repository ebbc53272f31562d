package factures

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
)

// Store is the persistence required by the service.
type Store interface {
	Insert(ctx context.Context, f *models.Facture) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Facture, error)
	List(ctx context.Context, params models.ListParams) ([]models.Facture, int64, error)
	Replace(ctx context.Context, f *models.Facture) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// InterventionStore is used to bill a finished repair.
type InterventionStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error)
	Replace(ctx context.Context, iv *models.Intervention) error
}

// ClientFinder checks that the billed client exists.
type ClientFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

// Sequencer hands out atomic per-year sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, kind numbering.Kind, year int) (int64, error)
}

// Input is the writable surface of an invoice. On update, omitted fields keep
// their stored value.
type Input struct {
	ClientID       string                `json:"clientId"`
	InterventionID string                `json:"interventionId"`
	Lignes         []models.LigneFacture `json:"lignes" binding:"dive"`
	TVA            *float64              `json:"tva"`
	Statut         models.FactureStatut  `json:"statut"`
	DateEmission   *time.Time            `json:"dateEmission"`
	DateEcheance   *time.Time            `json:"dateEcheance"`
	DatePaiement   *time.Time            `json:"datePaiement"`
	ModePaiement   string                `json:"modePaiement"`
	Notes          *string               `json:"notes"`
}

// Service implements invoice use cases.
type Service struct {
	store         Store
	interventions InterventionStore
	clients       ClientFinder
	seq           Sequencer
	tva           float64
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the invoice service. tva is the default VAT percentage.
func NewService(store Store, interventions InterventionStore, clients ClientFinder, seq Sequencer, tva float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:         store,
		interventions: interventions,
		clients:       clients,
		seq:           seq,
		tva:           tva,
		logger:        logger,
		now:           time.Now,
	}
}

// Create validates and numbers a new invoice. When it references an
// intervention and carries no lines, lines are built from the intervention
// costs and the intervention moves to Facturé.
func (s *Service) Create(ctx context.Context, in Input) (*models.Facture, error) {
	now := s.now()
	f := &models.Facture{
		Statut:       in.Statut,
		TVA:          s.tva,
		DateEmission: now,
		DateCreation: now,
		UpdatedAt:    now,
	}
	if f.Statut == "" {
		f.Statut = models.FactureBrouillon
	}

	var iv *models.Intervention
	if in.InterventionID != "" {
		id, err := primitive.ObjectIDFromHex(in.InterventionID)
		if err != nil {
			return nil, models.Validationf("interventionId invalide")
		}
		iv, err = s.interventions.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if iv.Statut == models.StatutAnnule {
			return nil, models.Conflictf("l'intervention %s est annulée", iv.Numero)
		}
		f.InterventionID = &iv.ID
		f.ClientID = iv.ClientID
	}

	if in.ClientID != "" {
		id, err := primitive.ObjectIDFromHex(in.ClientID)
		if err != nil {
			return nil, models.Validationf("clientId invalide")
		}
		if iv != nil && iv.ClientID != id {
			return nil, models.Validationf("le client ne correspond pas à l'intervention")
		}
		f.ClientID = id
	}
	if f.ClientID.IsZero() {
		return nil, models.Validationf("clientId est requis")
	}
	if _, err := s.clients.FindByID(ctx, f.ClientID); err != nil {
		return nil, err
	}

	if err := s.apply(f, in); err != nil {
		return nil, err
	}
	if len(f.Lignes) == 0 && iv != nil {
		f.Lignes = LignesFromIntervention(iv)
	}
	if len(f.Lignes) == 0 {
		return nil, models.Validationf("une facture doit contenir au moins une ligne")
	}

	year := now.Year()
	seq, err := s.seq.Next(ctx, numbering.KindFacture, year)
	if err != nil {
		return nil, fmt.Errorf("assign facture numero: %w", err)
	}
	f.Numero = numbering.Format(numbering.KindFacture, year, seq)

	f.ComputeDerived()
	if err := s.store.Insert(ctx, f); err != nil {
		return nil, err
	}

	if iv != nil && iv.Statut != models.StatutFacture {
		s.markBilled(ctx, iv)
	}

	s.logger.Info("facture created", zap.String("numero", f.Numero), zap.Float64("total_ttc", f.TotalTTC))
	return f, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Facture, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of invoices.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Facture], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Facture]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update replaces the editable fields of an invoice. A paid invoice only
// accepts changes to its notes.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.Facture, error) {
	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Statut == models.FacturePayee {
		if in.Notes != nil {
			f.Notes = *in.Notes
		}
		f.UpdatedAt = s.now()
		if err := s.store.Replace(ctx, f); err != nil {
			return nil, err
		}
		return f, nil
	}

	if in.Statut != "" {
		f.Statut = in.Statut
	}
	if err := s.apply(f, in); err != nil {
		return nil, err
	}
	if len(f.Lignes) == 0 {
		return nil, models.Validationf("une facture doit contenir au moins une ligne")
	}
	s.stampPayment(f)

	f.UpdatedAt = s.now()
	f.ComputeDerived()
	if err := s.store.Replace(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateStatut moves an invoice to another statut. Marking it paid stamps
// the payment date.
func (s *Service) UpdateStatut(ctx context.Context, id primitive.ObjectID, statut models.FactureStatut, modePaiement string) (*models.Facture, error) {
	if !statut.Valid() {
		return nil, models.Validationf("statut inconnu: %s", statut)
	}
	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Statut = statut
	if modePaiement != "" {
		f.ModePaiement = modePaiement
	}
	s.stampPayment(f)
	f.UpdatedAt = s.now()
	f.ComputeDerived()
	if err := s.store.Replace(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes an invoice unless it was paid.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if f.Statut == models.FacturePayee {
		return models.Conflictf("une facture payée ne peut pas être supprimée")
	}
	return s.store.Delete(ctx, id)
}

// LignesFromIntervention turns the cost breakdown of a repair into invoice lines.
func LignesFromIntervention(iv *models.Intervention) []models.LigneFacture {
	var lignes []models.LigneFacture
	if iv.ForfaitApplique > 0 {
		lignes = append(lignes, models.LigneFacture{
			Description:  fmt.Sprintf("Forfait %s", iv.Type),
			Quantite:     1,
			PrixUnitaire: iv.ForfaitApplique,
		})
	}
	for _, p := range iv.PiecesUtilisees {
		label := p.Designation
		if p.Reference != "" {
			label = fmt.Sprintf("%s (%s)", p.Designation, p.Reference)
		}
		lignes = append(lignes, models.LigneFacture{
			Description:  label,
			Quantite:     float64(p.Quantite),
			PrixUnitaire: p.PrixUnitaire,
		})
	}
	if iv.TempsMainOeuvre > 0 {
		lignes = append(lignes, models.LigneFacture{
			Description:  "Main d'oeuvre",
			Quantite:     iv.TempsMainOeuvre,
			PrixUnitaire: iv.TauxHoraire,
		})
	}
	return lignes
}

func (s *Service) apply(f *models.Facture, in Input) error {
	if !f.Statut.Valid() {
		return models.Validationf("statut inconnu: %s", f.Statut)
	}
	if in.TVA != nil {
		if *in.TVA < 0 {
			return models.Validationf("la TVA ne peut pas être négative")
		}
		f.TVA = *in.TVA
	}
	for _, l := range in.Lignes {
		if l.Quantite < 0 || l.PrixUnitaire < 0 {
			return models.Validationf("ligne %q invalide", l.Description)
		}
	}
	if in.Lignes != nil {
		f.Lignes = in.Lignes
	}
	if in.DateEmission != nil {
		f.DateEmission = *in.DateEmission
	}
	if in.DateEcheance != nil {
		f.DateEcheance = in.DateEcheance
	}
	if in.DatePaiement != nil {
		f.DatePaiement = in.DatePaiement
	}
	if in.ModePaiement != "" {
		f.ModePaiement = in.ModePaiement
	}
	if in.Notes != nil {
		f.Notes = *in.Notes
	}
	return nil
}

func (s *Service) stampPayment(f *models.Facture) {
	if f.Statut == models.FacturePayee && f.DatePaiement == nil {
		now := s.now()
		f.DatePaiement = &now
	}
}

func (s *Service) markBilled(ctx context.Context, iv *models.Intervention) {
	previous := iv.Statut
	iv.Statut = models.StatutFacture
	if iv.DateRealisation == nil {
		now := s.now()
		iv.DateRealisation = &now
	}
	iv.UpdatedAt = s.now()
	iv.ComputeDerived()
	if err := s.interventions.Replace(ctx, iv); err != nil {
		s.logger.Error("failed to mark intervention billed",
			zap.String("numero", iv.Numero), zap.String("from", string(previous)), zap.Error(err))
	}
}
