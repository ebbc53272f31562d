// Package numbering formats the human-facing sequential identifiers of
// interventions and invoices, and plans the historical renumbering of
// interventions.
package numbering

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind identifies a numbered entity family and its prefix.
type Kind string

const (
	KindIntervention Kind = "INT"
	KindFacture      Kind = "FAC"
)

// TempPrefix marks placeholder numbers written during a renumbering run.
const TempPrefix = "TMP-"

// Format renders <PREFIX>-<year>-<seq padded to 4 digits>.
func Format(kind Kind, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", kind, year, seq)
}

// CounterID is the key of the per-kind, per-year counter document.
func CounterID(kind Kind, year int) string {
	return fmt.Sprintf("%s-%d", kind, year)
}

// Temporary returns a collision-proof placeholder for a record.
func Temporary(id primitive.ObjectID) string {
	return TempPrefix + id.Hex()
}

// Record is the minimal view of an intervention needed to renumber it.
type Record struct {
	ID           primitive.ObjectID
	DateCreation time.Time
}

// Assignment is the number a record receives.
type Assignment struct {
	ID     primitive.ObjectID
	Numero string
	Year   int
	Seq    int64
}

// PlanRenumbering orders records by their business creation date and numbers
// them from 1 within each year of that date. Ties keep the input order.
func PlanRenumbering(kind Kind, records []Record) []Assignment {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateCreation.Before(sorted[j].DateCreation)
	})

	seqByYear := make(map[int]int64)
	out := make([]Assignment, 0, len(sorted))
	for _, r := range sorted {
		year := r.DateCreation.Year()
		seqByYear[year]++
		seq := seqByYear[year]
		out = append(out, Assignment{
			ID:     r.ID,
			Numero: Format(kind, year, seq),
			Year:   year,
			Seq:    seq,
		})
	}
	return out
}

// MaxSeqByYear returns the highest sequence assigned per year.
func MaxSeqByYear(assignments []Assignment) map[int]int64 {
	out := make(map[int]int64)
	for _, a := range assignments {
		if a.Seq > out[a.Year] {
			out[a.Year] = a.Seq
		}
	}
	return out
}
