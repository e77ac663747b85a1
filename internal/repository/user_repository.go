package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User mirrors the 'users' table. PasswordHash never leaves this layer;
// handlers copy the public fields into their own response types.
type User struct {
	ID                  string
	Email               string
	Name                string
	PasswordHash        string
	OnboardingCompleted bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user with a fresh UUID and server-side timestamps and
// returns the stored row. Duplicate emails map to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	u.UpdatedAt = u.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, onboarding_completed, created_at, updated_at)
		 VALUES (?,?,?,?,0,?,?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	return u, nil
}

// GetByID fetches a user or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (User, error) {
	return r.getOne(ctx,
		`SELECT id,email,name,password_hash,onboarding_completed,created_at,updated_at
		 FROM users WHERE id=? LIMIT 1`, id)
}

// GetByEmail fetches a user by normalized email or ErrUserNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx,
		`SELECT id,email,name,password_hash,onboarding_completed,created_at,updated_at
		 FROM users WHERE email=? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.OnboardingCompleted, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile changes name and/or email for the given user, re-stamping
// updated_at. Nil fields stay untouched. Duplicate emails map to
// ErrEmailExists; a vanished user maps to ErrUserNotFound.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, name, email *string) (User, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if name != nil {
		set = append(set, "name = ?")
		args = append(args, *name)
	}
	if email != nil {
		set = append(set, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	args = append(args, id)

	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isDuplicateKey(err) {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	// MySQL reports 0 affected rows for both a miss and a no-op change;
	// the trailing fetch settles it with a single round trip.
	return r.GetByID(ctx, id)
}

// Delete removes the user row. Dependent rows cascade via foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// OnboardingCompleted reads the user's onboarding flag.
func (r *UserRepo) OnboardingCompleted(ctx context.Context, id string) (bool, error) {
	var done bool
	err := r.db.QueryRowContext(ctx,
		`SELECT onboarding_completed FROM users WHERE id=? LIMIT 1`, id).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrUserNotFound
	}
	return done, err
}

// CompleteOnboarding marks onboarding done and re-stamps updated_at.
// Completing twice is a harmless no-op.
func (r *UserRepo) CompleteOnboarding(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET onboarding_completed = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either already completed or missing; only the latter is an error.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
