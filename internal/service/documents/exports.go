package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// PiecesWorkbook exports the active inventory.
func (s *Service) PiecesWorkbook(ctx context.Context) (*File, error) {
	pieces, err := s.pieces.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	headers := []string{"Référence", "Désignation", "Catégorie", "Marque", "Stock", "Minimum", "Prix achat", "Prix vente", "Valeur stock", "Emplacement", "Fournisseur", "Critique"}
	rows := make([][]any, 0, len(pieces))
	for _, p := range pieces {
		critical := ""
		if p.IsCritical() {
			critical = "Oui"
		}
		rows = append(rows, []any{
			p.Reference, p.Designation, p.Categorie, p.Marque,
			p.QuantiteStock, p.QuantiteMinimum, p.PrixAchat, p.PrixVente,
			float64(p.QuantiteStock) * p.PrixAchat,
			p.Emplacement, p.Fournisseur, critical,
		})
	}

	data, err := workbook("Pièces", headers, rows, []float64{14, 32, 16, 14, 8, 9, 11, 11, 13, 14, 18, 9})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("inventory exported", zap.Int("rows", len(rows)))
	return &File{Name: fmt.Sprintf("pieces-%s.xlsx", s.now().In(s.loc).Format("2006-01-02")), ContentType: contentTypeXLSX, Data: data}, nil
}

// InterventionsWorkbook exports the interventions created during year.
func (s *Service) InterventionsWorkbook(ctx context.Context, year int) (*File, error) {
	if year < 2000 || year > 2100 {
		return nil, models.Validationf("année invalide: %d", year)
	}
	items, err := s.interventions.ListByYear(ctx, year)
	if err != nil {
		return nil, err
	}

	names := map[primitive.ObjectID]string{}
	name := func(id primitive.ObjectID) string {
		if n, ok := names[id]; ok {
			return n
		}
		n := ""
		if c, err := s.clients.FindByID(ctx, id); err == nil {
			n = c.FullName()
		}
		names[id] = n
		return n
	}

	headers := []string{"Numéro", "Date", "Client", "Appareil", "Type", "Statut", "Réalisée le", "Forfait", "Pièces", "Main d'oeuvre", "Total", "Garantie"}
	rows := make([][]any, 0, len(items))
	for _, iv := range items {
		rows = append(rows, []any{
			iv.Numero,
			iv.DateCreation.In(s.loc).Format(dateLayout),
			name(iv.ClientID),
			joinNonEmpty(" ", iv.Appareil.Type, iv.Appareil.Marque, iv.Appareil.Modele),
			string(iv.Type),
			string(iv.Statut),
			optionalDate(iv.DateRealisation, s.loc),
			iv.ForfaitApplique,
			iv.CoutPieces,
			iv.CoutMainOeuvre,
			iv.CoutTotal,
			optionalDate(iv.GarantieJusquau, s.loc),
		})
	}

	data, err := workbook(fmt.Sprintf("Interventions %d", year), headers, rows, []float64{15, 11, 24, 30, 10, 18, 12, 10, 10, 13, 10, 12})
	if err != nil {
		return nil, err
	}
	return &File{Name: fmt.Sprintf("interventions-%d.xlsx", year), ContentType: contentTypeXLSX, Data: data}, nil
}

func workbook(sheet string, headers []string, rows [][]any, widths []float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optionalDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}
