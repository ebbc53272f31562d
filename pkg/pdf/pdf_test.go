package pdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	doc := Document{
		Title:   "Facture",
		Numero:  "FAC-2026-0001",
		Date:    "Émise le 10/03/2026",
		Company: Party{Name: "Atelier Test", Lines: []string{"1 rue des Lilas", "", "75000 Paris"}},
		Client:  Party{Label: "Client", Name: "Marie Durand", Lines: []string{"marie@example.com"}},
		Fields:  []Field{{Label: "Échéance", Value: "09/04/2026"}},
		Table: Table{
			Headers: []string{"Désignation", "Qté", "PU", "Total"},
			Widths:  []float64{0, 15, 25, 25},
			Align:   []string{"L", "R", "R", "R"},
			Rows: [][]string{
				{"Forfait atelier", "1", "35,00 €", "35,00 €"},
				{"Une désignation de pièce particulièrement longue qui ne tient pas dans la colonne prévue", "2", "12,50 €", "25,00 €"},
			},
		},
		Totals: []Total{{Label: "Total HT", Value: "60,00 €"}, {Label: "Total TTC", Value: "72,00 €", Strong: true}},
		Notes:  "Merci de votre confiance.",
		Footer: "SIRET 000",
	}

	out, err := Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 500)
}

func TestRender_Minimal(t *testing.T) {
	out, err := Render(Document{Title: "Bon"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	w := columnWidths(Table{Headers: []string{"a", "b", "c"}, Widths: []float64{20}}, 100)
	assert.Equal(t, []float64{20, 40, 40}, w)
}
