package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Property represents a listing owned by exactly one user. Optional
// columns are pointers so absent values serialize as JSON null.
type Property struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Name         string    `json:"name"`
	Address      *string   `json:"address"`
	PropertyType *string   `json:"property_type"` // house | apartment
	Status       string    `json:"status"`        // active | inactive | sold
	Price        *float64  `json:"price"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PropertyRepo struct{ db *sql.DB }

func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

const propertyCols = `id, user_id, name, address, property_type, status, price, description, created_at, updated_at`

// Create inserts a property for its owner, generating the id and stamping
// both timestamps server-side. Client-supplied timestamps are never used.
func (r *PropertyRepo) Create(ctx context.Context, p *Property) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyCols+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Name, p.Address, p.PropertyType, p.Status, p.Price, p.Description,
		p.CreatedAt, p.UpdatedAt)
	return err
}

// ListByOwner returns all properties of one user, newest first.
func (r *PropertyRepo) ListByOwner(ctx context.Context, userID string) ([]*Property, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+propertyCols+` FROM properties WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Property, 0)
	for rows.Next() {
		p := new(Property)
		if err := scanProperty(rows, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByIDAndOwner fetches one property only when it belongs to the user;
// a foreign or missing id is ErrPropertyNotFound either way.
func (r *PropertyRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*Property, error) {
	p := new(Property)
	row := r.db.QueryRowContext(ctx,
		`SELECT `+propertyCols+` FROM properties WHERE id = ? AND user_id = ?`, id, userID)
	if err := scanProperty(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update rewrites the mutable columns of an owned property in a single
// ownership-filtered statement and re-stamps updated_at. Zero affected
// rows is ambiguous between a miss and a no-op change, so the trailing
// fetch both settles it (ErrPropertyNotFound on a miss) and refreshes *p.
func (r *PropertyRepo) Update(ctx context.Context, p *Property) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE properties
		 SET name = ?, address = ?, property_type = ?, status = ?, price = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		p.Name, p.Address, p.PropertyType, p.Status, p.Price, p.Description, p.UpdatedAt,
		p.ID, p.UserID)
	if err != nil {
		return err
	}
	cur, err := r.GetByIDAndOwner(ctx, p.ID, p.UserID)
	if err != nil {
		return err
	}
	*p = *cur
	return nil
}

// DeleteByIDAndOwner removes an owned property. Deleting a missing or
// foreign id reports ErrPropertyNotFound on every call.
func (r *PropertyRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM properties WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanProperty(s scanner, p *Property) error {
	return s.Scan(&p.ID, &p.UserID, &p.Name, &p.Address, &p.PropertyType, &p.Status,
		&p.Price, &p.Description, &p.CreatedAt, &p.UpdatedAt)
}
