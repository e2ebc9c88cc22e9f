package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamtask/entity"
	"teamtask/storage"

	"github.com/gosimple/slug"
)

const userColumns = "id, name, email, password, created_at, updated_at"

func (s *Store) CreateUser(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	res, err := s.q.ExecContext(ctx,
		"INSERT INTO users (name, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		u.Name, strings.ToLower(u.Email), u.Password, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	u.ID = id

	for _, r := range u.Roles {
		if err := s.AssignRole(ctx, u.ID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.getUser(ctx, "email = ?", strings.ToLower(email))
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	var u entity.User
	err := s.q.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %v: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %v: %w", arg, err)
	}

	roles, err := s.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (s *Store) GetUserRefs(ctx context.Context, ids []int64) (map[int64]entity.UserRef, error) {
	refs := make(map[int64]entity.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	query, args, err := s.in("SELECT id, name, email FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var rows []entity.UserRef
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	for _, r := range rows {
		refs[r.ID] = r
	}
	return refs, nil
}

// MissingUserIDs returns the ids that reference no user, in input order.
func (s *Store) MissingUserIDs(ctx context.Context, ids []int64) ([]int64, error) {
	refs, err := s.GetUserRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := refs[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Store) UserRoles(ctx context.Context, userID int64) ([]entity.Role, error) {
	var roles []entity.Role
	err := s.q.SelectContext(ctx, &roles, "SELECT role FROM user_roles WHERE user_id = ? ORDER BY role", userID)
	if err != nil {
		return nil, fmt.Errorf("querying roles of user %d: %w", userID, err)
	}
	return roles, nil
}

func (s *Store) AssignRole(ctx context.Context, userID int64, role entity.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	_, err := s.q.ExecContext(ctx, "INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)", userID, string(role))
	if err != nil {
		return fmt.Errorf("assigning role %s to user %d: %w", role, userID, err)
	}
	return nil
}

func (s *Store) CreateDepartment(ctx context.Context, d *entity.Department) error {
	if d.Slug == "" {
		d.Slug = slug.Make(d.Name)
	}
	if d.Code == "" {
		d.Code = strings.ToUpper(d.Slug)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	res, err := s.q.ExecContext(ctx,
		"INSERT INTO departments (code, name, slug, created_at) VALUES (?, ?, ?, ?)",
		d.Code, d.Name, d.Slug, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting department %s: %w", d.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading department id: %w", err)
	}
	d.ID = id
	return nil
}

func (s *Store) GetDepartments(ctx context.Context, ids []int64) (map[int64]entity.Department, error) {
	out := make(map[int64]entity.Department, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := s.in("SELECT id, code, name, slug, created_at FROM departments WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building department query: %w", err)
	}

	var rows []entity.Department
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying departments: %w", err)
	}
	for _, d := range rows {
		out[d.ID] = d
	}
	return out, nil
}

func (s *Store) DepartmentIDBySlug(ctx context.Context, slugValue string) (int64, error) {
	var id int64
	err := s.q.GetContext(ctx, &id, "SELECT id FROM departments WHERE slug = ?", slugValue)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("department %s: %w", slugValue, storage.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("getting department %s: %w", slugValue, err)
	}
	return id, nil
}

func (s *Store) AttachDepartment(ctx context.Context, userID, departmentID int64) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO department_user (department_id, user_id, created_at) VALUES (?, ?, ?)",
		departmentID, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("attaching user %d to department %d: %w", userID, departmentID, err)
	}
	return nil
}

// FirstDepartmentID returns the department the user joined first, or nil.
func (s *Store) FirstDepartmentID(ctx context.Context, userID int64) (*int64, error) {
	var id int64
	err := s.q.GetContext(ctx, &id,
		"SELECT department_id FROM department_user WHERE user_id = ? ORDER BY id LIMIT 1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving department of user %d: %w", userID, err)
	}
	return &id, nil
}

// SameDepartmentUsers lists users sharing any department with userID,
// excluding userID, newest first.
func (s *Store) SameDepartmentUsers(ctx context.Context, userID int64) ([]entity.User, error) {
	users := []entity.User{}
	err := s.q.SelectContext(ctx, &users, `
		SELECT DISTINCT u.id AS id, u.name AS name, u.email AS email,
			u.created_at AS created_at, u.updated_at AS updated_at
		FROM users u
		JOIN department_user du ON du.user_id = u.id
		WHERE du.department_id IN (SELECT department_id FROM department_user WHERE user_id = ?)
		  AND u.id <> ?
		ORDER BY u.created_at DESC, u.id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying colleagues of user %d: %w", userID, err)
	}

	for i := range users {
		roles, err := s.UserRoles(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}
