package system

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"teamtask/config"
	"teamtask/entity"
	"teamtask/storage"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seed creates the configured departments, the admin account and any
// configured users. Existing rows are left as they are, so it is safe to run
// on every start.
func Seed(ctx context.Context, store storage.Store, cfg config.SeedConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return store.WithinTx(ctx, func(st storage.Store) error {
		depts := map[string]int64{}
		for _, name := range cfg.Departments {
			id, err := ensureDepartment(ctx, st, name)
			if err != nil {
				return err
			}
			depts[slug.Make(name)] = id
		}

		if cfg.AdminPassword != "" {
			admin := config.SeedUser{
				Name:     cfg.AdminName,
				Email:    cfg.AdminEmail,
				Password: cfg.AdminPassword,
				Roles:    []string{string(entity.RoleAdmin)},
			}
			if err := ensureUser(ctx, st, admin, depts, logger); err != nil {
				return err
			}
		}

		for _, u := range cfg.Users {
			if err := ensureUser(ctx, st, u, depts, logger); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureDepartment(ctx context.Context, st storage.Store, name string) (int64, error) {
	id, err := st.DepartmentIDBySlug(ctx, slug.Make(name))
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	d := entity.Department{Name: name}
	if err := st.CreateDepartment(ctx, &d); err != nil {
		return 0, fmt.Errorf("seeding department %s: %w", name, err)
	}
	return d.ID, nil
}

func ensureUser(ctx context.Context, st storage.Store, su config.SeedUser, depts map[string]int64, logger *zap.Logger) error {
	user, err := st.GetUserByEmail(ctx, su.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		user = &entity.User{Name: su.Name, Email: su.Email, Password: string(hash)}
		if err := st.CreateUser(ctx, user); err != nil {
			return err
		}
		logger.Info("seeded user", zap.String("email", user.Email))
	case err != nil:
		return err
	}

	for _, r := range su.Roles {
		role := entity.Role(strings.ToLower(r))
		if !role.Valid() {
			return fmt.Errorf("seed user %s: unknown role %q", su.Email, r)
		}
		if err := st.AssignRole(ctx, user.ID, role); err != nil {
			return err
		}
	}

	for _, name := range su.Departments {
		id, ok := depts[slug.Make(name)]
		if !ok {
			var err error
			if id, err = ensureDepartment(ctx, st, name); err != nil {
				return err
			}
			depts[slug.Make(name)] = id
		}
		if err := st.AttachDepartment(ctx, user.ID, id); err != nil {
			return err
		}
	}
	return nil
}
