package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/repairdesk/internal/config"
)

// snapshotHeader labels the columns written by AppendRow for KPI snapshots.
var snapshotHeader = []any{
	"Date", "Interventions ouvertes", "Clients", "CA du mois", "Impayés",
	"Valeur du stock", "Prêts en cours", "Prêts en retard",
}

// GoogleSheetRepository appends KPI snapshots to a spreadsheet.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Range == "" {
		return nil, fmt.Errorf("sheet range must not be empty")
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.Range,
		logger:        logger,
	}, nil
}

// AppendRow appends values to the configured range, writing the header row
// first when the sheet is still empty.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, values []any) error {
	empty, err := r.isEmpty(ctx)
	if err != nil {
		return err
	}
	rows := [][]any{values}
	if empty {
		rows = [][]any{snapshotHeader, values}
	}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.sheetRange, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", r.sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", r.sheetRange), zap.Bool("with_header", empty))
	return nil
}

func (r *GoogleSheetRepository) isEmpty(ctx context.Context) (bool, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.sheetRange).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read range %s: %w", r.sheetRange, err)
	}
	return len(resp.Values) == 0, nil
}
