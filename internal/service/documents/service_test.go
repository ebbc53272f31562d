package documents

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

type fakeSources struct {
	interventions map[primitive.ObjectID]*models.Intervention
	factures      map[primitive.ObjectID]*models.Facture
	clients       map[primitive.ObjectID]*models.Client
	pieces        []models.Piece
}

func (f *fakeSources) interventionByID(id primitive.ObjectID) (*models.Intervention, error) {
	iv, ok := f.interventions[id]
	if !ok {
		return nil, models.NotFoundf("intervention introuvable")
	}
	return iv, nil
}

type ivSource struct{ *fakeSources }

func (s ivSource) FindByID(_ context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	return s.interventionByID(id)
}

func (s ivSource) ListByYear(_ context.Context, year int) ([]models.Intervention, error) {
	var out []models.Intervention
	for _, iv := range s.interventions {
		if iv.DateCreation.Year() == year {
			out = append(out, *iv)
		}
	}
	return out, nil
}

type facSource struct{ *fakeSources }

func (s facSource) FindByID(_ context.Context, id primitive.ObjectID) (*models.Facture, error) {
	f, ok := s.factures[id]
	if !ok {
		return nil, models.NotFoundf("facture introuvable")
	}
	return f, nil
}

type clientSource struct{ *fakeSources }

func (s clientSource) FindByID(_ context.Context, id primitive.ObjectID) (*models.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, models.NotFoundf("client introuvable")
	}
	return c, nil
}

type pieceSource struct{ *fakeSources }

func (s pieceSource) ListAll(context.Context) ([]models.Piece, error) { return s.pieces, nil }

func fixture() (*Service, primitive.ObjectID, primitive.ObjectID) {
	clientID := primitive.NewObjectID()
	ivID := primitive.NewObjectID()
	facID := primitive.NewObjectID()
	done := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

	iv := &models.Intervention{
		ID: ivID, Numero: "INT-2026-0001", ClientID: clientID,
		Appareil:        models.AppareilSnapshot{Type: "Lave-linge", Marque: "Bosch", Modele: "WAN28"},
		Type:            models.TypeAtelier,
		Statut:          models.StatutTermine,
		Description:     "Ne vidange plus",
		DateCreation:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		DateRealisation: &done,
		PiecesUtilisees: []models.PieceUtilisee{{Reference: "PMP-01", Designation: "Pompe de vidange", Quantite: 1, PrixUnitaire: 25}},
		TempsMainOeuvre: 1.5,
		TauxHoraire:     45,
		ForfaitApplique: 35,
	}
	iv.ComputeDerived()

	f := &models.Facture{
		ID: facID, Numero: "FAC-2026-0001", ClientID: clientID,
		Lignes:       []models.LigneFacture{{Description: "Réparation", Quantite: 1, PrixUnitaire: 127.5}},
		TVA:          20,
		Statut:       models.FactureEmise,
		DateEmission: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	f.ComputeDerived()

	src := &fakeSources{
		interventions: map[primitive.ObjectID]*models.Intervention{ivID: iv},
		factures:      map[primitive.ObjectID]*models.Facture{facID: f},
		clients:       map[primitive.ObjectID]*models.Client{clientID: {ID: clientID, Nom: "Durand", Prenom: "Marie", Ville: "Lyon"}},
		pieces: []models.Piece{
			{Reference: "PMP-01", Designation: "Pompe", QuantiteStock: 1, QuantiteMinimum: 2, PrixAchat: 12, Actif: true},
			{Reference: "JNT-02", Designation: "Joint", QuantiteStock: 10, QuantiteMinimum: 2, PrixAchat: 1.5, Actif: true},
		},
	}
	svc := NewService(ivSource{src}, facSource{src}, clientSource{src}, pieceSource{src}, Company{Name: "Atelier Test", SIRET: "123"}, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, ivID, facID
}

func TestInterventionPDF(t *testing.T) {
	svc, ivID, _ := fixture()

	file, err := svc.InterventionPDF(context.Background(), ivID)
	require.NoError(t, err)
	assert.Equal(t, "bon-INT-2026-0001.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	_, err = svc.InterventionPDF(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFacturePDF(t *testing.T) {
	svc, _, facID := fixture()

	file, err := svc.FacturePDF(context.Background(), facID)
	require.NoError(t, err)
	assert.Equal(t, "facture-FAC-2026-0001.pdf", file.Name)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestInterventionDocument(t *testing.T) {
	svc, ivID, _ := fixture()
	iv, _ := svc.interventions.FindByID(context.Background(), ivID)

	doc := InterventionDocument(iv, &models.Client{Nom: "Durand", Prenom: "Marie"}, Company{Name: "Atelier"}, time.UTC)
	require.Len(t, doc.Table.Rows, 3)
	assert.Equal(t, []string{"Forfait atelier", "1", "35,00 €", "35,00 €"}, doc.Table.Rows[0])
	assert.Equal(t, "Pompe de vidange (PMP-01)", doc.Table.Rows[1][0])
	assert.Equal(t, []string{"Main d'oeuvre", "1,5 h", "45,00 €", "67,50 €"}, doc.Table.Rows[2])
	assert.Equal(t, "127,50 €", doc.Totals[2].Value)
	assert.Equal(t, "Marie Durand", doc.Client.Name)
}

func TestFactureDocument_Totals(t *testing.T) {
	svc, _, facID := fixture()
	f, _ := svc.factures.FindByID(context.Background(), facID)

	doc := FactureDocument(f, &models.Client{Nom: "Durand"}, Company{}, time.UTC)
	assert.Equal(t, "127,50 €", doc.Totals[0].Value)
	assert.Equal(t, "TVA 20 %", doc.Totals[1].Label)
	assert.Equal(t, "25,50 €", doc.Totals[1].Value)
	assert.Equal(t, "153,00 €", doc.Totals[2].Value)
	assert.Equal(t, "09/04/2026", doc.Fields[0].Value)
}

func TestPiecesWorkbook(t *testing.T) {
	svc, _, _ := fixture()

	file, err := svc.PiecesWorkbook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pieces-2026-03-10.xlsx", file.Name)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	rows, err := wb.GetRows("Pièces")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Référence", rows[0][0])
	assert.Equal(t, "PMP-01", rows[1][0])
	assert.Equal(t, "Oui", rows[1][11])
}

func TestInterventionsWorkbook(t *testing.T) {
	svc, _, _ := fixture()

	file, err := svc.InterventionsWorkbook(context.Background(), 2026)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	rows, err := wb.GetRows("Interventions 2026")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "INT-2026-0001", rows[1][0])
	assert.Equal(t, "Marie Durand", rows[1][2])
	assert.Equal(t, "09/06/2026", rows[1][11])

	_, err = svc.InterventionsWorkbook(context.Background(), 1900)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEuro(t *testing.T) {
	assert.Equal(t, "1234,50 €", Euro(1234.5))
	assert.Equal(t, "0,00 €", Euro(0))
}
