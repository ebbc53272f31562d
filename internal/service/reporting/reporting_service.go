package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

const (
	// DefaultTopN is the length of ranking lists.
	DefaultTopN = 5
	// DocumentHorizon is how far ahead vehicle obligations raise alerts.
	DocumentHorizon = 30 * 24 * time.Hour
)

// InterventionSource provides intervention aggregates.
type InterventionSource interface {
	CountByStatut(ctx context.Context) ([]models.StatutCount, error)
	MonthlyRevenue(ctx context.Context, from, to time.Time) ([]models.MonthBucket, error)
	SumBilled(ctx context.Context, from, to time.Time) (float64, error)
	TopClients(ctx context.Context, limit int) ([]models.RankedClient, error)
	TopPieces(ctx context.Context, limit int) ([]models.RankedPiece, error)
	TopDeviceTypes(ctx context.Context, limit int) ([]models.RankedLabel, error)
	AverageCost(ctx context.Context) (float64, error)
	ListByStatuts(ctx context.Context, statuts []models.InterventionStatut) ([]models.Intervention, error)
}

// FactureSource provides invoice aggregates.
type FactureSource interface {
	ListUnpaid(ctx context.Context) ([]models.Facture, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Facture, error)
	StatsByStatut(ctx context.Context) ([]models.StatutCount, error)
	PaidByYear(ctx context.Context) ([]models.YearTotal, error)
}

// PieceSource provides inventory aggregates.
type PieceSource interface {
	Stats(ctx context.Context) (models.PieceStats, error)
	ListCritical(ctx context.Context) ([]models.Piece, error)
}

// PretSource provides loan aggregates.
type PretSource interface {
	CountOpen(ctx context.Context) (int64, error)
	ListLate(ctx context.Context, now time.Time) ([]models.Pret, error)
	CountByStatut(ctx context.Context) ([]models.StatutCount, error)
}

// ClientCounter counts clients.
type ClientCounter interface {
	Count(ctx context.Context) (int64, error)
}

// VehiculeSource lists vehicles with obligations due before a date.
type VehiculeSource interface {
	ListExpiring(ctx context.Context, limit time.Time) ([]models.Vehicule, error)
}

// Sources groups the read models the reporting layer aggregates.
type Sources struct {
	Interventions InterventionSource
	Factures      FactureSource
	Pieces        PieceSource
	Prets         PretSource
	Clients       ClientCounter
	Vehicules     VehiculeSource
}

// KPIs are the headline dashboard figures.
type KPIs struct {
	InterventionsParStatut map[string]int `json:"interventionsParStatut"`
	InterventionsOuvertes  int            `json:"interventionsOuvertes"`
	Clients                int64          `json:"clients"`
	CAMois                 float64        `json:"caMois"`
	MontantImpaye          float64        `json:"montantImpaye"`
	ValeurStock            float64        `json:"valeurStock"`
	PiecesCritiques        int            `json:"piecesCritiques"`
	PretsEnCours           int64          `json:"pretsEnCours"`
	PretsEnRetard          int            `json:"pretsEnRetard"`
}

// Alerts are the items needing attention.
type Alerts struct {
	StockCritique      []models.Piece   `json:"stockCritique"`
	FacturesEnRetard   []models.Facture `json:"facturesEnRetard"`
	DocumentsVehicules []VehiculeAlert  `json:"documentsVehicules"`
	PretsEnRetard      []models.Pret    `json:"pretsEnRetard"`
}

// Count is the total number of alerts.
func (a Alerts) Count() int {
	return len(a.StockCritique) + len(a.FacturesEnRetard) + len(a.DocumentsVehicules) + len(a.PretsEnRetard)
}

// Dashboard is the full reporting payload.
type Dashboard struct {
	KPIs              KPIs                  `json:"kpis"`
	Revenus           []models.MonthBucket  `json:"revenus"`
	Vieillissement    []AgingTranche        `json:"vieillissementFactures"`
	RetoursGarantie   WarrantyReturns       `json:"retoursGarantie"`
	TopClients        []models.RankedClient `json:"topClients"`
	TopPieces         []models.RankedPiece  `json:"topPieces"`
	TopTypesAppareils []models.RankedLabel  `json:"topTypesAppareils"`
	Alertes           Alerts                `json:"alertes"`
	SectionsEnErreur  []string              `json:"sectionsEnErreur,omitempty"`
	GenereLe          time.Time             `json:"genereLe"`
}

// InterventionStats backs the intervention statistics endpoint.
type InterventionStats struct {
	ParStatut []models.StatutCount `json:"parStatut"`
	CoutMoyen float64              `json:"coutMoyen"`
	TopTypes  []models.RankedLabel `json:"topTypes"`
}

// FactureStats backs the invoice statistics endpoint.
type FactureStats struct {
	ParStatut      []models.StatutCount `json:"parStatut"`
	CAParAnnee     []models.YearTotal   `json:"caParAnnee"`
	Vieillissement []AgingTranche       `json:"vieillissement"`
}

// PretStats backs the loan statistics endpoint.
type PretStats struct {
	ParStatut []models.StatutCount `json:"parStatut"`
	EnCours   int64                `json:"enCours"`
	EnRetard  int                  `json:"enRetard"`
}

// Service computes dashboard sections from the entity store.
type Service struct {
	src    Sources
	loc    *time.Location
	topN   int
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. Calendar months are
// computed in loc.
func NewService(src Sources, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, loc: loc, topN: DefaultTopN, logger: logger, now: time.Now}
}

// section runs one dashboard block. A failure is logged and recorded so the
// rest of the dashboard is still served.
func (s *Service) section(name string, failed *[]string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.Warn("dashboard section failed", zap.String("section", name), zap.Error(err))
		*failed = append(*failed, name)
	}
}

// Dashboard computes every section independently.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	now := s.now()
	var failed []string
	d := Dashboard{GenereLe: now}

	d.KPIs = s.kpis(ctx, now, &failed)

	s.section("revenus", &failed, func() error {
		series, err := s.revenue(ctx, now)
		d.Revenus = series
		return err
	})
	if d.Revenus == nil {
		d.Revenus = DensifyMonths(nil, now, s.loc)
	}

	s.section("vieillissement", &failed, func() error {
		unpaid, err := s.src.Factures.ListUnpaid(ctx)
		if err != nil {
			return err
		}
		d.Vieillissement = AgeInvoices(unpaid, now)
		return nil
	})
	if d.Vieillissement == nil {
		d.Vieillissement = AgeInvoices(nil, now)
	}

	s.section("retoursGarantie", &failed, func() error {
		r, err := s.warrantyReturns(ctx, now)
		d.RetoursGarantie = r
		return err
	})

	s.section("topClients", &failed, func() (err error) {
		d.TopClients, err = s.src.Interventions.TopClients(ctx, s.topN)
		return err
	})
	s.section("topPieces", &failed, func() (err error) {
		d.TopPieces, err = s.src.Interventions.TopPieces(ctx, s.topN)
		return err
	})
	s.section("topTypesAppareils", &failed, func() (err error) {
		d.TopTypesAppareils, err = s.src.Interventions.TopDeviceTypes(ctx, s.topN)
		return err
	})

	d.Alertes = s.alerts(ctx, now, &failed)
	d.SectionsEnErreur = failed
	return d
}

// KPIs computes the headline figures only.
func (s *Service) KPIs(ctx context.Context) KPIs {
	var failed []string
	return s.kpis(ctx, s.now(), &failed)
}

// Revenue returns the trailing 12-month revenue series.
func (s *Service) Revenue(ctx context.Context) ([]models.MonthBucket, error) {
	return s.revenue(ctx, s.now())
}

// Alerts returns the current alerts. Failing categories are left empty.
func (s *Service) Alerts(ctx context.Context) Alerts {
	var failed []string
	return s.alerts(ctx, s.now(), &failed)
}

// InterventionStats returns counts per statut, average cost and device mix.
func (s *Service) InterventionStats(ctx context.Context) (InterventionStats, error) {
	var st InterventionStats
	var err error
	if st.ParStatut, err = s.src.Interventions.CountByStatut(ctx); err != nil {
		return st, fmt.Errorf("intervention stats by statut: %w", err)
	}
	if st.CoutMoyen, err = s.src.Interventions.AverageCost(ctx); err != nil {
		return st, fmt.Errorf("intervention average cost: %w", err)
	}
	if st.TopTypes, err = s.src.Interventions.TopDeviceTypes(ctx, s.topN); err != nil {
		return st, fmt.Errorf("intervention device types: %w", err)
	}
	st.CoutMoyen = addMoney(st.CoutMoyen, 0)
	return st, nil
}

// FactureStats returns totals per statut, paid revenue per year and aging.
func (s *Service) FactureStats(ctx context.Context) (FactureStats, error) {
	var st FactureStats
	var err error
	if st.ParStatut, err = s.src.Factures.StatsByStatut(ctx); err != nil {
		return st, fmt.Errorf("facture stats by statut: %w", err)
	}
	if st.CAParAnnee, err = s.src.Factures.PaidByYear(ctx); err != nil {
		return st, fmt.Errorf("facture revenue by year: %w", err)
	}
	unpaid, err := s.src.Factures.ListUnpaid(ctx)
	if err != nil {
		return st, fmt.Errorf("facture aging: %w", err)
	}
	st.Vieillissement = AgeInvoices(unpaid, s.now())
	return st, nil
}

// PieceStats returns inventory counts and value.
func (s *Service) PieceStats(ctx context.Context) (models.PieceStats, error) {
	return s.src.Pieces.Stats(ctx)
}

// PretStats returns loan counts.
func (s *Service) PretStats(ctx context.Context) (PretStats, error) {
	var st PretStats
	var err error
	if st.ParStatut, err = s.src.Prets.CountByStatut(ctx); err != nil {
		return st, fmt.Errorf("pret stats by statut: %w", err)
	}
	if st.EnCours, err = s.src.Prets.CountOpen(ctx); err != nil {
		return st, fmt.Errorf("count open prets: %w", err)
	}
	late, err := s.src.Prets.ListLate(ctx, s.now())
	if err != nil {
		return st, fmt.Errorf("list late prets: %w", err)
	}
	st.EnRetard = len(late)
	return st, nil
}

func (s *Service) revenue(ctx context.Context, now time.Time) ([]models.MonthBucket, error) {
	from, to := MonthWindow(now, s.loc)
	buckets, err := s.src.Interventions.MonthlyRevenue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	return DensifyMonths(buckets, now, s.loc), nil
}

func (s *Service) warrantyReturns(ctx context.Context, now time.Time) (WarrantyReturns, error) {
	open, err := s.src.Interventions.ListByStatuts(ctx, models.ActiveStatuts)
	if err != nil {
		return WarrantyReturns{}, fmt.Errorf("list open interventions: %w", err)
	}
	terminal, err := s.src.Interventions.ListByStatuts(ctx, models.TerminalStatuts)
	if err != nil {
		return WarrantyReturns{}, fmt.Errorf("list terminal interventions: %w", err)
	}
	return WarrantyReturnRate(open, terminal, now), nil
}

func (s *Service) kpis(ctx context.Context, now time.Time, failed *[]string) KPIs {
	k := KPIs{InterventionsParStatut: map[string]int{}}

	s.section("kpis.interventions", failed, func() error {
		counts, err := s.src.Interventions.CountByStatut(ctx)
		if err != nil {
			return err
		}
		for _, c := range counts {
			k.InterventionsParStatut[c.Statut] = c.Count
			if models.InterventionStatut(c.Statut).IsActive() {
				k.InterventionsOuvertes += c.Count
			}
		}
		return nil
	})
	s.section("kpis.clients", failed, func() (err error) {
		k.Clients, err = s.src.Clients.Count(ctx)
		return err
	})
	s.section("kpis.caMois", failed, func() error {
		local := now.In(s.loc)
		from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
		ca, err := s.src.Interventions.SumBilled(ctx, from, from.AddDate(0, 1, 0))
		k.CAMois = addMoney(ca, 0)
		return err
	})
	s.section("kpis.impayes", failed, func() error {
		unpaid, err := s.src.Factures.ListUnpaid(ctx)
		if err != nil {
			return err
		}
		k.MontantImpaye = UnpaidTotal(AgeInvoices(unpaid, now))
		return nil
	})
	s.section("kpis.stock", failed, func() error {
		st, err := s.src.Pieces.Stats(ctx)
		k.ValeurStock = addMoney(st.StockValue, 0)
		k.PiecesCritiques = st.CriticalRefs
		return err
	})
	s.section("kpis.prets", failed, func() error {
		open, err := s.src.Prets.CountOpen(ctx)
		if err != nil {
			return err
		}
		late, err := s.src.Prets.ListLate(ctx, now)
		if err != nil {
			return err
		}
		k.PretsEnCours = open
		k.PretsEnRetard = len(late)
		return nil
	})
	return k
}

func (s *Service) alerts(ctx context.Context, now time.Time, failed *[]string) Alerts {
	a := Alerts{
		StockCritique:      []models.Piece{},
		FacturesEnRetard:   []models.Facture{},
		DocumentsVehicules: []VehiculeAlert{},
		PretsEnRetard:      []models.Pret{},
	}

	s.section("alertes.stock", failed, func() error {
		items, err := s.src.Pieces.ListCritical(ctx)
		if items != nil {
			a.StockCritique = items
		}
		return err
	})
	s.section("alertes.factures", failed, func() error {
		items, err := s.src.Factures.ListOverdue(ctx, now)
		if items != nil {
			a.FacturesEnRetard = items
		}
		return err
	})
	s.section("alertes.vehicules", failed, func() error {
		vehicules, err := s.src.Vehicules.ListExpiring(ctx, now.Add(DocumentHorizon))
		if err != nil {
			return err
		}
		if alerts := ExpiringDocuments(vehicules, now, DocumentHorizon); alerts != nil {
			a.DocumentsVehicules = alerts
		}
		return nil
	})
	s.section("alertes.prets", failed, func() error {
		items, err := s.src.Prets.ListLate(ctx, now)
		if items != nil {
			a.PretsEnRetard = items
		}
		return err
	})
	return a
}

// SnapshotRow flattens KPIs into a spreadsheet row.
func SnapshotRow(k KPIs, at time.Time) []any {
	return []any{
		at.Format("2006-01-02"),
		k.InterventionsOuvertes,
		k.Clients,
		k.CAMois,
		k.MontantImpaye,
		k.ValeurStock,
		k.PretsEnCours,
		k.PretsEnRetard,
	}
}

// Summary renders the KPIs as a short French text.
func Summary(k KPIs) string {
	return fmt.Sprintf(
		"Interventions ouvertes : %d\nClients : %d\nCA du mois : %.2f €\nImpayés : %.2f €\nValeur du stock : %.2f € (%d pièce(s) en stock critique)\nPrêts en cours : %d dont %d en retard",
		k.InterventionsOuvertes, k.Clients, k.CAMois, k.MontantImpaye, k.ValeurStock, k.PiecesCritiques, k.PretsEnCours, k.PretsEnRetard,
	)
}
