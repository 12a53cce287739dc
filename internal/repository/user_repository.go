package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Status       string
	Role         string
	FotoPerfil   *string
}

// AdminUserRow is the slim projection returned to the admin user list.
type AdminUserRow struct {
	ID     uint64 `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
	Role   string `json:"role"`
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  The email is normalized; a
// duplicate yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash, role, status string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, status) VALUES (?,?,?,?)",
		email, passwordHash, role, status)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,status,role,foto_perfil FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,status,role,foto_perfil FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (User, error) {
	var u User
	var foto sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Status, &u.Role, &foto)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	u.FotoPerfil = strPtr(foto)
	return u, err
}

// GetRole returns only the role of a user, or ErrNotFound.
func (r *UserRepo) GetRole(ctx context.Context, id uint64) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM users WHERE id=?", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

// ListOthers returns every user except the given one, for the admin panel.
func (r *UserRepo) ListOthers(ctx context.Context, excludeID uint64) ([]AdminUserRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,email,status,role FROM users WHERE id <> ?", excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminUserRow{}
	for rows.Next() {
		var u AdminUserRow
		if err := rows.Scan(&u.ID, &u.Email, &u.Status, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateStatus sets a user's approval status.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET status=? WHERE id=?", status, id)
	return err
}

// UpdateRole sets a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	return err
}

// UpdatePhoto replaces the profile photo path and returns the previous one
// so the caller can remove the old file.
func (r *UserRepo) UpdatePhoto(ctx context.Context, id uint64, photo string) (*string, error) {
	var old sql.NullString
	err := r.DB.QueryRowContext(ctx, "SELECT foto_perfil FROM users WHERE id=?", id).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET foto_perfil=? WHERE id=?", photo, id); err != nil {
		return nil, err
	}
	return strPtr(old), nil
}

// MediaPaths collects every photo path referenced by the user's rows: the
// profile photo, bonsai photos, work-log before/after photos and pot photos.
// Callers remove the files best-effort before deleting the user.
func (r *UserRepo) MediaPaths(ctx context.Context, id uint64) ([]*string, error) {
	var out []*string

	var profile sql.NullString
	if err := r.DB.QueryRowContext(ctx, "SELECT foto_perfil FROM users WHERE id=?", id).Scan(&profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out = append(out, strPtr(profile))

	queries := []string{
		"SELECT foto FROM bonsais WHERE user_id=?",
		"SELECT foto FROM macetas WHERE user_id=?",
		`SELECT tb.foto_antes FROM trabajos_bonsai tb JOIN bonsais b ON tb.bonsai_id=b.id WHERE b.user_id=?`,
		`SELECT tb.foto_despues FROM trabajos_bonsai tb JOIN bonsais b ON tb.bonsai_id=b.id WHERE b.user_id=?`,
	}
	for _, q := range queries {
		rows, err := r.DB.QueryContext(ctx, q, id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var p sql.NullString
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, strPtr(p))
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// Delete removes a user.  Bonsais, tasks, work logs, pots, fertilizers and
// species cards cascade at the database level.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of users, for the admin stats endpoint.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// DistinctEmails lists every user email, for the gallery filter dropdown.
func (r *UserRepo) DistinctEmails(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT DISTINCT email FROM users ORDER BY email ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
