package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// weeklyCSV is one month of a weekly pivot export. Its records sum to 33.
const weeklyCSV = ";COMPUTADORES;;TELEFONES\n" +
	"Nº SEMANA;NOTEBOOK;DESKTOP;CELULAR\n" +
	"1;10;4;7\n" +
	"2;3;;9\n" +
	"TOTAL;13;4;16\n"

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.StatusEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []domain.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.StatusEvent(nil), p.events...)
}

func newTestDashboard(t *testing.T, opts DashboardOptions) (*DashboardService, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	svc, err := NewDashboardService(opts, publisher, nil, infrastructure.NewLogger(io.Discard, "debug"))
	require.NoError(t, err)
	return svc, publisher
}

func csvUpload(name string) Upload {
	return Upload{Name: name, Data: []byte(weeklyCSV)}
}
