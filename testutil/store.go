// Package testutil builds throwaway SQLite stores and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"teamtask/entity"
	"teamtask/storage/sqlite"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewTestStore returns a migrated in-memory store closed with the test.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// CreateUser inserts a user with the given roles. The email is derived from
// the name.
func CreateUser(t *testing.T, st *sqlite.Store, name string, roles ...entity.Role) entity.User {
	t.Helper()
	u := entity.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
		Roles:    roles,
	}
	require.NoError(t, st.CreateUser(context.Background(), &u))
	return u
}

func CreateDepartment(t *testing.T, st *sqlite.Store, name string, members ...entity.User) entity.Department {
	t.Helper()
	ctx := context.Background()
	d := entity.Department{Name: name}
	require.NoError(t, st.CreateDepartment(ctx, &d))
	for _, m := range members {
		require.NoError(t, st.AttachDepartment(ctx, m.ID, d.ID))
	}
	return d
}

func Actor(u entity.User) entity.Actor {
	return entity.NewActor(u.ID, u.Name, u.Roles)
}
