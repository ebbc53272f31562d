package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/pkg/pdf"
)

const dateLayout = "02/01/2006"

// InterventionSource loads repairs.
type InterventionSource interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error)
	ListByYear(ctx context.Context, year int) ([]models.Intervention, error)
}

// FactureSource loads invoices.
type FactureSource interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Facture, error)
}

// ClientFinder loads the addressee of a document.
type ClientFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

// PieceLister lists the active inventory.
type PieceLister interface {
	ListAll(ctx context.Context) ([]models.Piece, error)
}

// Company is printed in document headers.
type Company struct {
	Name    string
	Address string
	SIRET   string
}

// File is a generated document ready to be streamed.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Service renders work orders, invoices and spreadsheet exports.
type Service struct {
	interventions InterventionSource
	factures      FactureSource
	clients       ClientFinder
	pieces        PieceLister
	company       Company
	loc           *time.Location
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires the document service.
func NewService(interventions InterventionSource, factures FactureSource, clients ClientFinder, pieces PieceLister, company Company, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		interventions: interventions,
		factures:      factures,
		clients:       clients,
		pieces:        pieces,
		company:       company,
		loc:           loc,
		logger:        logger,
		now:           time.Now,
	}
}

// InterventionPDF renders the work order of an intervention.
func (s *Service) InterventionPDF(ctx context.Context, id primitive.ObjectID) (*File, error) {
	iv, err := s.interventions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	client := s.client(ctx, iv.ClientID)
	data, err := pdf.Render(InterventionDocument(iv, client, s.company, s.loc))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("work order rendered", zap.String("numero", iv.Numero), zap.Int("bytes", len(data)))
	return &File{Name: fileName("bon", iv.Numero, ".pdf"), ContentType: contentTypePDF, Data: data}, nil
}

// FacturePDF renders an invoice.
func (s *Service) FacturePDF(ctx context.Context, id primitive.ObjectID) (*File, error) {
	f, err := s.factures.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	client := s.client(ctx, f.ClientID)
	data, err := pdf.Render(FactureDocument(f, client, s.company, s.loc))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("invoice rendered", zap.String("numero", f.Numero), zap.Int("bytes", len(data)))
	return &File{Name: fileName("facture", f.Numero, ".pdf"), ContentType: contentTypePDF, Data: data}, nil
}

// client loads the addressee. A deleted client still yields a printable
// document.
func (s *Service) client(ctx context.Context, id primitive.ObjectID) *models.Client {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("client lookup failed for document", zap.String("client_id", id.Hex()), zap.Error(err))
		return &models.Client{Nom: "Client inconnu"}
	}
	return c
}

// InterventionDocument lays out a work order.
func InterventionDocument(iv *models.Intervention, c *models.Client, company Company, loc *time.Location) pdf.Document {
	fields := []pdf.Field{
		{Label: "Appareil", Value: joinNonEmpty(" ", iv.Appareil.Type, iv.Appareil.Marque, iv.Appareil.Modele)},
		{Label: "N° de série", Value: iv.Appareil.NumeroSerie},
		{Label: "Type", Value: string(iv.Type)},
		{Label: "Statut", Value: string(iv.Statut)},
		{Label: "Description", Value: iv.Description},
	}
	if iv.Diagnostic != "" {
		fields = append(fields, pdf.Field{Label: "Diagnostic", Value: iv.Diagnostic})
	}
	if iv.DateRealisation != nil {
		fields = append(fields, pdf.Field{Label: "Réalisée le", Value: iv.DateRealisation.In(loc).Format(dateLayout)})
	}
	if iv.GarantieJusquau != nil {
		fields = append(fields, pdf.Field{Label: "Garantie jusqu'au", Value: iv.GarantieJusquau.In(loc).Format(dateLayout)})
	}

	table := lineTable()
	if iv.ForfaitApplique > 0 {
		table.Rows = append(table.Rows, []string{"Forfait " + strings.ToLower(string(iv.Type)), "1", Euro(iv.ForfaitApplique), Euro(iv.ForfaitApplique)})
	}
	for _, p := range iv.PiecesUtilisees {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%s (%s)", p.Designation, p.Reference),
			fmt.Sprint(p.Quantite),
			Euro(p.PrixUnitaire),
			Euro(p.Total()),
		})
	}
	if iv.TempsMainOeuvre > 0 {
		table.Rows = append(table.Rows, []string{"Main d'oeuvre", quantity(iv.TempsMainOeuvre) + " h", Euro(iv.TauxHoraire), Euro(iv.CoutMainOeuvre)})
	}

	return pdf.Document{
		Title:   "Bon d'intervention",
		Numero:  iv.Numero,
		Date:    "Créé le " + iv.DateCreation.In(loc).Format(dateLayout),
		Company: companyParty(company),
		Client:  clientParty(c),
		Fields:  fields,
		Table:   table,
		Totals: []pdf.Total{
			{Label: "Pièces", Value: Euro(iv.CoutPieces)},
			{Label: "Main d'oeuvre", Value: Euro(iv.CoutMainOeuvre)},
			{Label: "Total", Value: Euro(iv.CoutTotal), Strong: true},
		},
		Notes:  iv.Notes,
		Footer: footer(company),
	}
}

// FactureDocument lays out an invoice.
func FactureDocument(f *models.Facture, c *models.Client, company Company, loc *time.Location) pdf.Document {
	var fields []pdf.Field
	if f.DateEcheance != nil {
		fields = append(fields, pdf.Field{Label: "Échéance", Value: f.DateEcheance.In(loc).Format(dateLayout)})
	}
	fields = append(fields, pdf.Field{Label: "Statut", Value: string(f.Statut)})
	if f.DatePaiement != nil {
		paid := "Payée le " + f.DatePaiement.In(loc).Format(dateLayout)
		if f.ModePaiement != "" {
			paid += " (" + f.ModePaiement + ")"
		}
		fields = append(fields, pdf.Field{Label: "Paiement", Value: paid})
	}

	table := lineTable()
	for _, l := range f.Lignes {
		qty, unit := "", ""
		if l.Quantite != 0 {
			qty = quantity(l.Quantite)
			unit = Euro(l.PrixUnitaire)
		}
		table.Rows = append(table.Rows, []string{l.Description, qty, unit, Euro(l.Total)})
	}

	tva := decimal.NewFromFloat(f.TotalTTC).Sub(decimal.NewFromFloat(f.SousTotal))
	return pdf.Document{
		Title:   "Facture",
		Numero:  f.Numero,
		Date:    "Émise le " + f.DateEmission.In(loc).Format(dateLayout),
		Company: companyParty(company),
		Client:  clientParty(c),
		Fields:  fields,
		Table:   table,
		Totals: []pdf.Total{
			{Label: "Total HT", Value: Euro(f.SousTotal)},
			{Label: "TVA " + quantity(f.TVA) + " %", Value: Euro(tva.InexactFloat64())},
			{Label: "Total TTC", Value: Euro(f.TotalTTC), Strong: true},
		},
		Notes:  f.Notes,
		Footer: footer(company),
	}
}

func lineTable() pdf.Table {
	return pdf.Table{
		Headers: []string{"Désignation", "Qté", "Prix unitaire", "Total"},
		Widths:  []float64{0, 20, 30, 30},
		Align:   []string{"L", "R", "R", "R"},
	}
}

func companyParty(c Company) pdf.Party {
	return pdf.Party{Name: c.Name, Lines: strings.Split(c.Address, "\n")}
}

func clientParty(c *models.Client) pdf.Party {
	return pdf.Party{
		Label: "Client",
		Name:  c.FullName(),
		Lines: []string{c.Adresse, joinNonEmpty(" ", c.CodePostal, c.Ville), c.Telephone, c.Email},
	}
}

func footer(c Company) string {
	if c.SIRET == "" {
		return c.Name
	}
	return joinNonEmpty(" - ", c.Name, "SIRET "+c.SIRET)
}

// Euro formats an amount the French way: "1234,50 €".
func Euro(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1) + " €"
}

func quantity(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).String(), ".", ",", 1)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func fileName(prefix, numero, ext string) string {
	if numero == "" {
		numero = "brouillon"
	}
	return prefix + "-" + numero + ext
}
