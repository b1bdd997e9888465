package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/quickcloset/internal/domain"
)

const outfitColumns = `id, outfit_name, shirt_id, pants_id, accessories_id, shoes_id, notes, created_at, updated_at`

// OutfitStore persists saved outfits. Outfits are write-once: there is no
// update, only create and delete.
type OutfitStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewOutfitStore(db *sql.DB) *OutfitStore {
	return &OutfitStore{db: db, now: time.Now, newID: uuid.NewString}
}

// Create stores a new outfit. Slot references are not checked against the
// catalog here; only that at least one is set.
func (s *OutfitStore) Create(ctx context.Context, in domain.OutfitInput) (*domain.SavedOutfit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "outfit_name", Reason: "required"}
	}
	sel := in.Selection.Normalized()
	if sel.Empty() {
		return nil, &domain.ValidationError{Field: "slots", Reason: "at least one slot must reference an item"}
	}

	id := s.newID()
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_outfits (id, outfit_name, shirt_id, pants_id, accessories_id, shoes_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, name, sel.Shirt, sel.Pants, sel.Accessories, sel.Shoes, nullString(in.Notes), now, now)
	if err != nil {
		return nil, &domain.StoreError{Op: "create outfit", Err: err}
	}

	return s.GetByID(ctx, id)
}

// GetByID returns the outfit with the given id, or nil if there is none.
func (s *OutfitStore) GetByID(ctx context.Context, id string) (*domain.SavedOutfit, error) {
	outfit, err := scanOutfit(s.db.QueryRowContext(ctx, `
		SELECT `+outfitColumns+` FROM saved_outfits WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get outfit", Err: err}
	}
	return outfit, nil
}

// List returns one page of outfits, newest first.
func (s *OutfitStore) List(ctx context.Context, page domain.PageRequest) (*domain.Page[*domain.SavedOutfit], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+outfitColumns+` FROM saved_outfits
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, page.Limit, page.Offset())
	if err != nil {
		return nil, &domain.StoreError{Op: "list outfits", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	outfits := []*domain.SavedOutfit{}
	for rows.Next() {
		outfit, err := scanOutfit(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan outfit", Err: err}
		}
		outfits = append(outfits, outfit)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate outfits", Err: err}
	}

	return &domain.Page[*domain.SavedOutfit]{Data: outfits, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *OutfitStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_outfits`).Scan(&n); err != nil {
		return 0, &domain.StoreError{Op: "count outfits", Err: err}
	}
	return n, nil
}

// Delete removes the outfit and reports whether a row existed.
func (s *OutfitStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_outfits WHERE id = ?
	`, id)
	if err != nil {
		return false, &domain.StoreError{Op: "delete outfit", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, &domain.StoreError{Op: "get rows affected", Err: err}
	}
	return rowsAffected > 0, nil
}

func scanOutfit(row rowScanner) (*domain.SavedOutfit, error) {
	o := &domain.SavedOutfit{}
	var shirt, pants, accessories, shoes, notes sql.NullString
	if err := row.Scan(&o.ID, &o.Name, &shirt, &pants, &accessories, &shoes, &notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Shirt = refOf(shirt)
	o.Pants = refOf(pants)
	o.Accessories = refOf(accessories)
	o.Shoes = refOf(shoes)
	o.Notes = notes.String
	return o, nil
}

func refOf(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
