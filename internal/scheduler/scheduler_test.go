package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
)

type fakeLoans struct {
	calls int
	err   error
}

func (f *fakeLoans) RefreshLate(context.Context) (int64, error) {
	f.calls++
	return 2, f.err
}

type fakeReports struct{}

func (fakeReports) KPIs(context.Context) reporting.KPIs {
	return reporting.KPIs{InterventionsOuvertes: 4, Clients: 10}
}

func (fakeReports) Alerts(context.Context) reporting.Alerts {
	return reporting.Alerts{StockCritique: []models.Piece{{Reference: "R1"}}}
}

type fakeDigest struct {
	enabled bool
	sent    []reporting.Alerts
	err     error
}

func (f *fakeDigest) Enabled() bool { return f.enabled }

func (f *fakeDigest) SendDigest(_ context.Context, _ reporting.KPIs, a reporting.Alerts, _ time.Time) error {
	f.sent = append(f.sent, a)
	return f.err
}

type fakeSheet struct {
	rows [][]any
}

func (f *fakeSheet) AppendRow(_ context.Context, values []any) error {
	f.rows = append(f.rows, values)
	return nil
}

func newTestScheduler(loans *fakeLoans, digest DigestSender, sheet RowAppender) *Scheduler {
	s := NewScheduler("0 8 * * *", time.UTC, loans, fakeReports{}, digest, sheet, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestRunDaily(t *testing.T) {
	loans := &fakeLoans{}
	digest := &fakeDigest{enabled: true}
	sheet := &fakeSheet{}

	newTestScheduler(loans, digest, sheet).RunDaily(context.Background())

	assert.Equal(t, 1, loans.calls)
	require.Len(t, digest.sent, 1)
	assert.Equal(t, 1, digest.sent[0].Count())
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, "2026-03-10", sheet.rows[0][0])
}

func TestRunDaily_StepsAreIndependent(t *testing.T) {
	loans := &fakeLoans{err: errors.New("mongo down")}
	digest := &fakeDigest{enabled: true, err: errors.New("whatsapp down")}
	sheet := &fakeSheet{}

	newTestScheduler(loans, digest, sheet).RunDaily(context.Background())

	assert.Len(t, digest.sent, 1)
	assert.Len(t, sheet.rows, 1)
}

func TestRunDaily_OptionalOutputs(t *testing.T) {
	loans := &fakeLoans{}
	digest := &fakeDigest{enabled: false}

	newTestScheduler(loans, digest, nil).RunDaily(context.Background())

	assert.Equal(t, 1, loans.calls)
	assert.Empty(t, digest.sent)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler("every day", time.UTC, &fakeLoans{}, fakeReports{}, nil, nil, nil)
	assert.Error(t, s.Start())
}
