package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
	client "github.com/mamadbah2/repairdesk/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (r *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	r.sent = append(r.sent, req)
	if r.err != nil {
		return nil, r.err
	}
	return &client.SendTextMessageResponse{}, nil
}

func terminated() *models.Intervention {
	until := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	return &models.Intervention{
		Numero:          "INT-2026-0007",
		Type:            models.TypeAtelier,
		Appareil:        models.AppareilSnapshot{Type: "Lave-linge", Marque: "Bosch"},
		CoutTotal:       127.5,
		GarantieJusquau: &until,
	}
}

func TestInterventionTerminee(t *testing.T) {
	rc := &recordingClient{}
	svc := NewService(rc, "0600000000", "Atelier Test", nil)

	svc.InterventionTerminee(context.Background(), terminated(), &models.Client{Nom: "Durand", Prenom: "Marie", Telephone: "06 11 22 33 44"})

	require.Len(t, rc.sent, 1)
	assert.Equal(t, "06 11 22 33 44", rc.sent[0].To)
	assert.Contains(t, rc.sent[0].Body, "Bonjour Marie Durand")
	assert.Contains(t, rc.sent[0].Body, "INT-2026-0007 (Lave-linge Bosch)")
	assert.Contains(t, rc.sent[0].Body, "127.50 €")
	assert.Contains(t, rc.sent[0].Body, "10/06/2026")
}

func TestInterventionTerminee_SkipsAndSwallowsErrors(t *testing.T) {
	rc := &recordingClient{err: errors.New("boom")}
	svc := NewService(rc, "", "Atelier Test", nil)

	svc.InterventionTerminee(context.Background(), terminated(), &models.Client{Nom: "Sans téléphone"})
	assert.Empty(t, rc.sent)

	svc.InterventionTerminee(context.Background(), terminated(), &models.Client{Nom: "X", Telephone: "0611223344"})
	assert.Len(t, rc.sent, 1)
}

func TestDisabled(t *testing.T) {
	var nilSvc *Service
	assert.False(t, nilSvc.Enabled())
	nilSvc.InterventionTerminee(context.Background(), terminated(), &models.Client{Telephone: "0611223344"})
	assert.NoError(t, nilSvc.SendDigest(context.Background(), reporting.KPIs{}, reporting.Alerts{}, time.Now()))

	assert.False(t, NewService(nil, "0600000000", "x", nil).Enabled())
}

func TestSendDigest(t *testing.T) {
	rc := &recordingClient{}
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	err := NewService(rc, "", "Atelier Test", nil).SendDigest(context.Background(), reporting.KPIs{}, reporting.Alerts{}, at)
	assert.ErrorIs(t, err, ErrNoRecipient)

	alerts := reporting.Alerts{
		StockCritique:      []models.Piece{{Reference: "JNT-01", Designation: "Joint", QuantiteStock: 1, QuantiteMinimum: 3}},
		FacturesEnRetard:   []models.Facture{{Numero: "FAC-2026-0002", TotalTTC: 240}},
		DocumentsVehicules: []reporting.VehiculeAlert{{Immatriculation: "AB-123-CD", Libelle: "Assurance", Expire: true}},
	}
	require.NoError(t, NewService(rc, "0600000000", "Atelier Test", nil).SendDigest(context.Background(), reporting.KPIs{Clients: 3}, alerts, at))
	require.Len(t, rc.sent, 1)
	body := rc.sent[0].Body
	assert.Contains(t, body, "point du 10/03/2026")
	assert.Contains(t, body, "3 alerte(s)")
	assert.Contains(t, body, "JNT-01 Joint : 1/3")
	assert.Contains(t, body, "FAC-2026-0002 : 240.00 €")
	assert.Contains(t, body, "AB-123-CD Assurance : expiré")
}

func TestDigestText_NoAlerts(t *testing.T) {
	text := DigestText("Atelier", reporting.KPIs{}, reporting.Alerts{}, time.Now())
	assert.Contains(t, text, "Aucune alerte.")
}
