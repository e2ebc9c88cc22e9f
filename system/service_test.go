package system

import (
	"context"
	"testing"
	"time"

	"teamtask/component"
	"teamtask/entity"
	"teamtask/storage"
	"teamtask/storage/sqlite"
	"teamtask/testutil"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store       *sqlite.Store
	assignments *AssignmentService
	queries     *QueryService
	notifier    *Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testutil.NewTestStore(t)
	notifier := NewNotifier(st, nil, nil, nil)
	clock := component.Clock(func() time.Time { return fixedNow })
	return &fixture{
		store:       st,
		assignments: NewAssignmentService(st, nil, notifier, clock, nil),
		queries:     NewQueryService(st, nil, nil),
		notifier:    notifier,
	}
}

func (f *fixture) countRows(t *testing.T) int {
	t.Helper()
	stats, err := f.store.CountTasks(context.Background(), storage.TaskFilter{})
	require.NoError(t, err)
	return stats.Total
}

func (f *fixture) notificationsFor(t *testing.T, userID int64) []entity.Notification {
	t.Helper()
	notes, _, err := f.store.ListNotifications(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return notes
}

func tomorrow() *component.Date {
	d := component.NewDate(fixedNow.AddDate(0, 0, 1))
	return &d
}

func strPtr(s string) *string { return &s }
