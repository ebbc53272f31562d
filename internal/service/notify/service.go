package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
	client "github.com/mamadbah2/repairdesk/pkg/clients/whatsapp"
)

const (
	sendTimeout = 10 * time.Second
	// digestItems bounds each alert list in the digest.
	digestItems = 5
)

// ErrNoRecipient is returned by SendDigest when no manager number is set.
var ErrNoRecipient = errors.New("no digest recipient configured")

// Service pushes WhatsApp notifications. A nil *Service, or one built
// without a client, silently does nothing.
type Service struct {
	client  client.Client
	manager string
	company string
	logger  *zap.Logger
}

// NewService wires the notifier. managerNumber receives the daily digest.
func NewService(c client.Client, managerNumber, company string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, manager: managerNumber, company: company, logger: logger}
}

// Enabled reports whether messages are actually sent.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// InterventionTerminee tells the client their device is ready. Failures are
// logged only.
func (s *Service) InterventionTerminee(ctx context.Context, iv *models.Intervention, c *models.Client) {
	if !s.Enabled() || c == nil {
		return
	}
	if strings.TrimSpace(c.Telephone) == "" {
		s.logger.Debug("client has no phone number, completion notice skipped", zap.String("numero", iv.Numero))
		return
	}
	if err := s.send(ctx, c.Telephone, CompletionText(s.company, iv, c)); err != nil {
		s.logger.Warn("completion notice failed", zap.String("numero", iv.Numero), zap.Error(err))
		return
	}
	s.logger.Info("completion notice sent", zap.String("numero", iv.Numero))
}

// SendDigest sends the daily alert digest to the manager.
func (s *Service) SendDigest(ctx context.Context, k reporting.KPIs, a reporting.Alerts, at time.Time) error {
	if !s.Enabled() {
		return nil
	}
	if s.manager == "" {
		return ErrNoRecipient
	}
	return s.send(ctx, s.manager, DigestText(s.company, k, a, at))
}

func (s *Service) send(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   to,
		Body: body,
	})
	return err
}

// CompletionText is the message sent when a repair is finished.
func CompletionText(company string, iv *models.Intervention, c *models.Client) string {
	device := strings.TrimSpace(strings.Join([]string{iv.Appareil.Type, iv.Appareil.Marque, iv.Appareil.Modele}, " "))
	if device == "" {
		device = "votre appareil"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s,\n", strings.TrimSpace(c.Prenom+" "+c.Nom))
	fmt.Fprintf(&b, "La réparation %s (%s) est terminée.", iv.Numero, device)
	if iv.Type == models.TypeAtelier {
		b.WriteString(" Votre appareil est disponible à l'atelier.")
	}
	if iv.CoutTotal > 0 {
		fmt.Fprintf(&b, "\nMontant : %.2f €", iv.CoutTotal)
	}
	if iv.GarantieJusquau != nil {
		fmt.Fprintf(&b, "\nGarantie jusqu'au %s.", iv.GarantieJusquau.Format("02/01/2006"))
	}
	fmt.Fprintf(&b, "\n%s", company)
	return b.String()
}

// DigestText renders the daily summary.
func DigestText(company string, k reporting.KPIs, a reporting.Alerts, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - point du %s\n\n", company, at.Format("02/01/2006"))
	b.WriteString(reporting.Summary(k))

	if a.Count() == 0 {
		b.WriteString("\n\nAucune alerte.")
		return b.String()
	}

	fmt.Fprintf(&b, "\n\n%d alerte(s) :", a.Count())
	if len(a.StockCritique) > 0 {
		fmt.Fprintf(&b, "\nStock critique (%d) :", len(a.StockCritique))
		for _, p := range head(a.StockCritique) {
			fmt.Fprintf(&b, "\n- %s %s : %d/%d", p.Reference, p.Designation, p.QuantiteStock, p.QuantiteMinimum)
		}
	}
	if len(a.FacturesEnRetard) > 0 {
		fmt.Fprintf(&b, "\nFactures en retard (%d) :", len(a.FacturesEnRetard))
		for _, f := range head(a.FacturesEnRetard) {
			fmt.Fprintf(&b, "\n- %s : %.2f €", f.Numero, f.TotalTTC)
		}
	}
	if len(a.DocumentsVehicules) > 0 {
		fmt.Fprintf(&b, "\nVéhicules (%d) :", len(a.DocumentsVehicules))
		for _, v := range head(a.DocumentsVehicules) {
			state := fmt.Sprintf("dans %d j", v.JoursRestants)
			if v.Expire {
				state = "expiré"
			}
			fmt.Fprintf(&b, "\n- %s %s : %s", v.Immatriculation, v.Libelle, state)
		}
	}
	if len(a.PretsEnRetard) > 0 {
		fmt.Fprintf(&b, "\nPrêts en retard (%d)", len(a.PretsEnRetard))
	}
	return b.String()
}

func head[T any](items []T) []T {
	if len(items) > digestItems {
		return items[:digestItems]
	}
	return items
}
