package interventions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
)

// Store is the persistence required by the service.
type Store interface {
	Insert(ctx context.Context, iv *models.Intervention) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error)
	List(ctx context.Context, params models.ListParams) ([]models.Intervention, int64, error)
	Replace(ctx context.Context, iv *models.Intervention) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddPhoto(ctx context.Context, id primitive.ObjectID, f models.Fichier) error
}

// ClientFinder resolves the owning client.
type ClientFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

// Inventory resolves parts and moves their stock.
type Inventory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Piece, error)
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (*models.Piece, error)
}

// Sequencer hands out atomic per-year sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, kind numbering.Kind, year int) (int64, error)
}

// Notifier is told when a repair is completed.
type Notifier interface {
	InterventionTerminee(ctx context.Context, iv *models.Intervention, client *models.Client)
}

// Defaults are applied to new interventions that do not carry their own rates.
type Defaults struct {
	ForfaitAtelier  float64
	ForfaitDomicile float64
	TauxHoraire     float64
}

// Forfait returns the flat fee of an intervention type.
func (d Defaults) Forfait(t models.InterventionType) float64 {
	if t == models.TypeDomicile {
		return d.ForfaitDomicile
	}
	return d.ForfaitAtelier
}

// PieceInput is a part line as submitted by a caller.
type PieceInput struct {
	PieceID      string   `json:"pieceId" binding:"required"`
	Quantite     int      `json:"quantite" binding:"required,min=1"`
	PrixUnitaire *float64 `json:"prixUnitaire"`
}

// Input is the writable surface of an intervention. On update, nil fields
// keep their stored value; an empty technicienId unassigns and an empty
// piecesUtilisees list gives every part back.
type Input struct {
	ClientID        string                    `json:"clientId"`
	AppareilID      string                    `json:"appareilId"`
	Type            models.InterventionType   `json:"type"`
	Description     string                    `json:"description"`
	Diagnostic      *string                   `json:"diagnostic"`
	Statut          models.InterventionStatut `json:"statut"`
	TechnicienID    *string                   `json:"technicienId"`
	DatePlanifiee   *time.Time                `json:"datePlanifiee"`
	DateRealisation *time.Time                `json:"dateRealisation"`
	PiecesUtilisees []PieceInput              `json:"piecesUtilisees" binding:"omitempty,dive"`
	TempsMainOeuvre *float64                  `json:"tempsMainOeuvre" binding:"omitempty,min=0"`
	TauxHoraire     *float64                  `json:"tauxHoraire"`
	ForfaitApplique *float64                  `json:"forfaitApplique"`
	Notes           *string                   `json:"notes"`
}

// Service implements intervention use cases.
type Service struct {
	store     Store
	clients   ClientFinder
	inventory Inventory
	seq       Sequencer
	notifier  Notifier
	defaults  Defaults
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the intervention service. notifier may be nil.
func NewService(store Store, clients ClientFinder, inventory Inventory, seq Sequencer, notifier Notifier, defaults Defaults, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		clients:   clients,
		inventory: inventory,
		seq:       seq,
		notifier:  notifier,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the input, snapshots the client's device, consumes stock
// for the parts used and numbers the new intervention.
func (s *Service) Create(ctx context.Context, in Input) (*models.Intervention, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.Validationf("la description est requise")
	}
	clientID, err := parseID("clientId", in.ClientID)
	if err != nil {
		return nil, err
	}
	appareilID, err := parseID("appareilId", in.AppareilID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	appareil, ok := client.FindAppareil(appareilID)
	if !ok {
		return nil, models.Validationf("appareil inconnu pour ce client")
	}

	now := s.now()
	iv := &models.Intervention{
		ClientID:        clientID,
		Appareil:        appareil.Snapshot(),
		Type:            in.Type,
		Description:     strings.TrimSpace(in.Description),
		Statut:          in.Statut,
		PiecesUtilisees: []models.PieceUtilisee{},
		DateCreation:    now,
		UpdatedAt:       now,
	}
	if iv.Type == "" {
		iv.Type = models.TypeAtelier
	}
	if iv.Statut == "" {
		iv.Statut = models.StatutDemande
	}
	if iv.Type != models.TypeAtelier && iv.Type != models.TypeDomicile {
		return nil, models.Validationf("type d'intervention inconnu: %s", iv.Type)
	}
	iv.ForfaitApplique = s.defaults.Forfait(iv.Type)
	iv.TauxHoraire = s.defaults.TauxHoraire

	if err := s.apply(ctx, iv, in); err != nil {
		return nil, err
	}

	if err := s.moveStock(ctx, nil, iv.PiecesUtilisees); err != nil {
		return nil, err
	}

	if err := s.assignNumero(ctx, iv, now); err != nil {
		s.restoreStock(ctx, nil, iv.PiecesUtilisees)
		return nil, err
	}

	iv.ComputeDerived()
	if err := s.store.Insert(ctx, iv); err != nil {
		s.restoreStock(ctx, nil, iv.PiecesUtilisees)
		return nil, err
	}

	s.logger.Info("intervention created", zap.String("numero", iv.Numero), zap.String("client_id", clientID.Hex()))
	return iv, nil
}

// Get returns one intervention.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	return s.store.FindByID(ctx, id)
}

// List returns a page of interventions.
func (s *Service) List(ctx context.Context, params models.ListParams) (models.Page[models.Intervention], error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return models.Page[models.Intervention]{}, err
	}
	return models.NewPage(items, params, total), nil
}

// Update replaces the editable fields. The client and device snapshot stay frozen.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.Intervention, error) {
	iv, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *iv
	previousPieces := append([]models.PieceUtilisee(nil), iv.PiecesUtilisees...)

	if in.Type != "" {
		if in.Type != models.TypeAtelier && in.Type != models.TypeDomicile {
			return nil, models.Validationf("type d'intervention inconnu: %s", in.Type)
		}
		if in.Type != iv.Type && in.ForfaitApplique == nil {
			iv.ForfaitApplique = s.defaults.Forfait(in.Type)
		}
		iv.Type = in.Type
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		iv.Description = d
	}
	if in.Statut != "" {
		iv.Statut = in.Statut
	}

	if err := s.apply(ctx, iv, in); err != nil {
		return nil, err
	}
	s.completeIfTerminated(&previous, iv)

	if err := s.moveStock(ctx, previousPieces, iv.PiecesUtilisees); err != nil {
		return nil, err
	}

	iv.UpdatedAt = s.now()
	iv.ComputeDerived()
	if err := s.store.Replace(ctx, iv); err != nil {
		s.restoreStock(ctx, previousPieces, iv.PiecesUtilisees)
		return nil, err
	}

	s.afterTransition(ctx, previous.Statut, iv)
	return iv, nil
}

// UpdateStatut moves an intervention through its lifecycle.
func (s *Service) UpdateStatut(ctx context.Context, id primitive.ObjectID, statut models.InterventionStatut) (*models.Intervention, error) {
	if !statut.Valid() {
		return nil, models.Validationf("statut inconnu: %s", statut)
	}
	iv, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *iv
	iv.Statut = statut
	s.completeIfTerminated(&previous, iv)

	iv.UpdatedAt = s.now()
	iv.ComputeDerived()
	if err := s.store.Replace(ctx, iv); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, previous.Statut, iv)
	return iv, nil
}

// Delete removes an intervention and gives its parts back to the stock.
// Billed interventions are kept.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	iv, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if iv.Statut == models.StatutFacture {
		return models.Conflictf("une intervention facturée ne peut pas être supprimée")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.restoreStock(ctx, nil, iv.PiecesUtilisees)
	return nil
}

// AttachPhoto records an uploaded photo on the intervention.
func (s *Service) AttachPhoto(ctx context.Context, id primitive.ObjectID, f models.Fichier) error {
	return s.store.AddPhoto(ctx, id, f)
}

// apply merges the optional fields of in into iv.
func (s *Service) apply(ctx context.Context, iv *models.Intervention, in Input) error {
	if in.Diagnostic != nil {
		iv.Diagnostic = *in.Diagnostic
	}
	if in.Notes != nil {
		iv.Notes = *in.Notes
	}
	if in.DatePlanifiee != nil {
		iv.DatePlanifiee = in.DatePlanifiee
	}
	if in.DateRealisation != nil {
		iv.DateRealisation = in.DateRealisation
	}
	if in.TempsMainOeuvre != nil {
		if *in.TempsMainOeuvre < 0 {
			return models.Validationf("le temps de main d'oeuvre doit être positif")
		}
		iv.TempsMainOeuvre = *in.TempsMainOeuvre
	}
	if in.TauxHoraire != nil {
		iv.TauxHoraire = *in.TauxHoraire
	}
	if in.ForfaitApplique != nil {
		iv.ForfaitApplique = *in.ForfaitApplique
	}
	if iv.Statut != "" && !iv.Statut.Valid() {
		return models.Validationf("statut inconnu: %s", iv.Statut)
	}

	if in.TechnicienID != nil {
		iv.TechnicienID = nil
		if *in.TechnicienID != "" {
			tid, err := parseID("technicienId", *in.TechnicienID)
			if err != nil {
				return err
			}
			iv.TechnicienID = &tid
		}
	}

	if in.PiecesUtilisees == nil {
		return nil
	}
	pieces, err := s.resolvePieces(ctx, iv.PiecesUtilisees, in.PiecesUtilisees)
	if err != nil {
		return err
	}
	iv.PiecesUtilisees = pieces
	return nil
}

// resolvePieces turns caller lines into frozen part lines. A line already
// present keeps its historical price unless the caller sends a new one; a new
// line takes the part's current sale price.
func (s *Service) resolvePieces(ctx context.Context, existing []models.PieceUtilisee, lines []PieceInput) ([]models.PieceUtilisee, error) {
	known := make(map[primitive.ObjectID]models.PieceUtilisee, len(existing))
	for _, p := range existing {
		known[p.PieceID] = p
	}

	out := make([]models.PieceUtilisee, 0, len(lines))
	for _, line := range lines {
		pid, err := parseID("pieceId", line.PieceID)
		if err != nil {
			return nil, err
		}
		if line.Quantite <= 0 {
			return nil, models.Validationf("quantité invalide pour la pièce %s", line.PieceID)
		}

		used, ok := known[pid]
		if !ok {
			piece, err := s.inventory.FindByID(ctx, pid)
			if err != nil {
				return nil, err
			}
			used = models.PieceUtilisee{
				PieceID:      pid,
				Reference:    piece.Reference,
				Designation:  piece.Designation,
				PrixUnitaire: piece.PrixVente,
			}
		}
		used.Quantite = line.Quantite
		if line.PrixUnitaire != nil {
			if *line.PrixUnitaire < 0 {
				return nil, models.Validationf("prix unitaire négatif pour la pièce %s", line.PieceID)
			}
			used.PrixUnitaire = *line.PrixUnitaire
		}
		out = append(out, used)
	}
	return out, nil
}

// stockDeltas computes how much stock each part must give (positive) or get
// back (negative) when moving from before to after.
func stockDeltas(before, after []models.PieceUtilisee) map[primitive.ObjectID]int {
	deltas := make(map[primitive.ObjectID]int)
	for _, p := range after {
		deltas[p.PieceID] += p.Quantite
	}
	for _, p := range before {
		deltas[p.PieceID] -= p.Quantite
	}
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}
	return deltas
}

// moveStock consumes the parts needed to go from before to after. On failure
// the movements already made are reverted.
func (s *Service) moveStock(ctx context.Context, before, after []models.PieceUtilisee) error {
	applied := make(map[primitive.ObjectID]int)
	for id, consume := range stockDeltas(before, after) {
		if _, err := s.inventory.AdjustStock(ctx, id, -consume); err != nil {
			for rid, rc := range applied {
				if _, rerr := s.inventory.AdjustStock(ctx, rid, rc); rerr != nil {
					s.logger.Error("failed to revert stock movement", zap.String("piece_id", rid.Hex()), zap.Error(rerr))
				}
			}
			if errors.Is(err, models.ErrConflict) {
				return models.Conflictf("stock insuffisant pour la pièce %s", id.Hex())
			}
			return fmt.Errorf("move stock: %w", err)
		}
		applied[id] = consume
	}
	return nil
}

// restoreStock undoes moveStock(before, after).
func (s *Service) restoreStock(ctx context.Context, before, after []models.PieceUtilisee) {
	for id, consume := range stockDeltas(before, after) {
		if _, err := s.inventory.AdjustStock(ctx, id, consume); err != nil {
			s.logger.Error("failed to restore stock", zap.String("piece_id", id.Hex()), zap.Error(err))
		}
	}
}

func (s *Service) assignNumero(ctx context.Context, iv *models.Intervention, now time.Time) error {
	if iv.Numero != "" {
		return nil
	}
	year := now.Year()
	seq, err := s.seq.Next(ctx, numbering.KindIntervention, year)
	if err != nil {
		return fmt.Errorf("assign intervention numero: %w", err)
	}
	iv.Numero = numbering.Format(numbering.KindIntervention, year, seq)
	return nil
}

// completeIfTerminated stamps the completion date when a repair first
// reaches a terminal statut.
func (s *Service) completeIfTerminated(previous, iv *models.Intervention) {
	if iv.Statut.IsTerminal() && !previous.Statut.IsTerminal() && iv.DateRealisation == nil {
		now := s.now()
		iv.DateRealisation = &now
	}
}

func (s *Service) afterTransition(ctx context.Context, from models.InterventionStatut, iv *models.Intervention) {
	if from == iv.Statut || iv.Statut != models.StatutTermine || s.notifier == nil {
		return
	}
	client, err := s.clients.FindByID(ctx, iv.ClientID)
	if err != nil {
		s.logger.Warn("skip completion notice, client lookup failed", zap.String("numero", iv.Numero), zap.Error(err))
		return
	}
	s.notifier.InterventionTerminee(ctx, iv, client)
}

func parseID(field, raw string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, models.Validationf("%s est requis", field)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.Validationf("%s invalide", field)
	}
	return id, nil
}
