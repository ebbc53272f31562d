package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// RevenueMonths is the length of the trailing revenue series.
const RevenueMonths = 12

// Invoice aging tranche labels.
const (
	Tranche0to30  = "0-30"
	Tranche30to60 = "30-60"
	Tranche60Plus = "60+"
)

// AgingTranche groups unpaid invoices by age.
type AgingTranche struct {
	Tranche string  `json:"tranche"`
	Count   int     `json:"nombre"`
	Total   float64 `json:"total"`
}

// WarrantyReturns is the outcome of the warranty-return correlation.
type WarrantyReturns struct {
	Returns  int     `json:"retours"`
	Terminal int     `json:"terminees"`
	Rate     float64 `json:"taux"`
}

// MonthWindow returns [from, to) covering the trailing calendar months that
// end with the month of now, in loc.
func MonthWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	current := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return current.AddDate(0, -(RevenueMonths - 1), 0), current.AddDate(0, 1, 0)
}

// DensifyMonths expands sparse per-month buckets into exactly RevenueMonths
// entries, oldest first, with zero revenue for months absent from buckets.
func DensifyMonths(buckets []models.MonthBucket, now time.Time, loc *time.Location) []models.MonthBucket {
	type key struct{ year, month int }
	byMonth := make(map[key]models.MonthBucket, len(buckets))
	for _, b := range buckets {
		k := key{b.Year, b.Month}
		acc := byMonth[k]
		acc.CA = addMoney(acc.CA, b.CA)
		acc.Count += b.Count
		byMonth[k] = acc
	}

	from, _ := MonthWindow(now, loc)
	out := make([]models.MonthBucket, 0, RevenueMonths)
	for i := 0; i < RevenueMonths; i++ {
		m := from.AddDate(0, i, 0)
		k := key{m.Year(), int(m.Month())}
		b := byMonth[k]
		out = append(out, models.MonthBucket{Year: k.year, Month: k.month, CA: b.CA, Count: b.Count})
	}
	return out
}

// AgeInvoices buckets unpaid invoices by days elapsed since emission. The
// three tranches are always returned, in order.
func AgeInvoices(factures []models.Facture, now time.Time) []AgingTranche {
	out := []AgingTranche{
		{Tranche: Tranche0to30},
		{Tranche: Tranche30to60},
		{Tranche: Tranche60Plus},
	}
	for _, f := range factures {
		if f.Statut != models.FactureEmise && f.Statut != models.FactureBrouillon {
			continue
		}
		days := int(now.Sub(f.DateEmission).Hours() / 24)
		idx := 2
		switch {
		case days < 30:
			idx = 0
		case days < 60:
			idx = 1
		}
		out[idx].Count++
		out[idx].Total = addMoney(out[idx].Total, f.TotalTTC)
	}
	return out
}

// UnpaidTotal sums the tranche totals.
func UnpaidTotal(tranches []AgingTranche) float64 {
	var total float64
	for _, t := range tranches {
		total = addMoney(total, t.Total)
	}
	return total
}

// WarrantyReturnRate counts open interventions that bring back a device the
// same client had repaired earlier and that is still under warranty. The
// rate is expressed against the number of terminal interventions.
func WarrantyReturnRate(open, terminal []models.Intervention, now time.Time) WarrantyReturns {
	type pair struct{ device, client primitive.ObjectID }
	history := make(map[pair][]models.Intervention)
	for _, t := range terminal {
		if !t.Statut.IsTerminal() {
			continue
		}
		k := pair{t.Appareil.ID, t.ClientID}
		history[k] = append(history[k], t)
	}

	res := WarrantyReturns{}
	for _, t := range terminal {
		if t.Statut.IsTerminal() {
			res.Terminal++
		}
	}

	for _, o := range open {
		if !o.Statut.IsActive() {
			continue
		}
		for _, prior := range history[pair{o.Appareil.ID, o.ClientID}] {
			if prior.ID != o.ID && prior.DateCreation.Before(o.DateCreation) && prior.UnderWarranty(now) {
				res.Returns++
				break
			}
		}
	}

	if res.Terminal > 0 {
		res.Rate = decimal.NewFromInt(int64(res.Returns)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(res.Terminal))).
			Round(2).
			InexactFloat64()
	}
	return res
}

// VehiculeAlert is a vehicle obligation due soon or already past.
type VehiculeAlert struct {
	VehiculeID      primitive.ObjectID `json:"vehiculeId"`
	Immatriculation string             `json:"immatriculation"`
	Libelle         string             `json:"libelle"`
	Date            time.Time          `json:"date"`
	JoursRestants   int                `json:"joursRestants"`
	Expire          bool               `json:"expire"`
}

// ExpiringDocuments lists obligations of the vehicles falling before
// now+horizon, soonest first.
func ExpiringDocuments(vehicules []models.Vehicule, now time.Time, horizon time.Duration) []VehiculeAlert {
	limit := now.Add(horizon)
	var out []VehiculeAlert
	for i := range vehicules {
		v := &vehicules[i]
		for _, e := range v.Echeances() {
			if e.Date.After(limit) {
				continue
			}
			out = append(out, VehiculeAlert{
				VehiculeID:      v.ID,
				Immatriculation: v.Immatriculation,
				Libelle:         e.Libelle,
				Date:            e.Date,
				JoursRestants:   int(e.Date.Sub(now).Hours() / 24),
				Expire:          e.Date.Before(now),
			})
		}
	}
	sortAlerts(out)
	return out
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func sortAlerts(alerts []VehiculeAlert) {
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Date.Before(alerts[j].Date) })
}
