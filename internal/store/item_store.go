package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/quickcloset/internal/domain"
)

const itemColumns = `id, title, category, image_url, tags, created_at, updated_at`

// ItemStore persists wardrobe items in the wardrobe_items table.
type ItemStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, now: time.Now, newID: uuid.NewString}
}

func validateItem(in domain.ItemInput) (domain.ItemInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, &domain.ValidationError{Field: "title", Reason: "required"}
	}
	if !in.Category.Valid() {
		return in, &domain.ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not one of shirts, pants, accessories, shoes", in.Category)}
	}
	return in, nil
}

func (s *ItemStore) Create(ctx context.Context, in domain.ItemInput) (*domain.WardrobeItem, error) {
	in, err := validateItem(in)
	if err != nil {
		return nil, err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, &domain.StoreError{Op: "encode tags", Err: err}
	}

	id := s.newID()
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wardrobe_items (id, title, category, image_url, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, in.Title, in.Category, in.ImageURL, tags, now, now)
	if err != nil {
		return nil, &domain.StoreError{Op: "create item", Err: err}
	}

	return s.GetByID(ctx, id)
}

// GetByID returns the item with the given id, or nil if there is none.
func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.WardrobeItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM wardrobe_items WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get item", Err: err}
	}
	return item, nil
}

// List returns one page of items, newest first, narrowed by filter.
func (s *ItemStore) List(ctx context.Context, filter domain.ItemFilter, page domain.PageRequest) (*domain.Page[*domain.WardrobeItem], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, &domain.ValidationError{Field: "category", Reason: fmt.Sprintf("%q is not a known category", filter.Category)}
	}

	where, args := itemWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wardrobe_items`+where, args...).Scan(&total); err != nil {
		return nil, &domain.StoreError{Op: "count items", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM wardrobe_items`+where+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, &domain.StoreError{Op: "list items", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := []*domain.WardrobeItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "scan item", Err: err}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate items", Err: err}
	}

	return &domain.Page[*domain.WardrobeItem]{Data: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// itemWhere builds the WHERE clause for a filter. Tag matching goes through
// json_each only when the stored tags are valid JSON, so a corrupt row is
// matched on its title alone.
func itemWhere(filter domain.ItemFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? ESCAPE '\'
			OR CASE WHEN json_valid(tags)
				THEN EXISTS (SELECT 1 FROM json_each(wardrobe_items.tags) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')
				ELSE 0 END)`)
		args = append(args, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Update replaces every writable field of the item. updated_at never moves
// backwards even if the clock does.
func (s *ItemStore) Update(ctx context.Context, id string, in domain.ItemInput) (*domain.WardrobeItem, error) {
	in, err := validateItem(in)
	if err != nil {
		return nil, err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, &domain.StoreError{Op: "encode tags", Err: err}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE wardrobe_items
		SET title = ?, category = ?, image_url = ?, tags = ?, updated_at = MAX(updated_at, ?)
		WHERE id = ?
	`, in.Title, in.Category, in.ImageURL, tags, s.now().UnixMilli(), id)
	if err != nil {
		return nil, &domain.StoreError{Op: "update item", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, &domain.StoreError{Op: "get rows affected", Err: err}
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// Delete removes the item and reports whether a row existed. Outfits that
// reference the item are left untouched.
func (s *ItemStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM wardrobe_items WHERE id = ?
	`, id)
	if err != nil {
		return false, &domain.StoreError{Op: "delete item", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, &domain.StoreError{Op: "get rows affected", Err: err}
	}
	return rowsAffected > 0, nil
}

func (s *ItemStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wardrobe_items`).Scan(&n); err != nil {
		return 0, &domain.StoreError{Op: "count items", Err: err}
	}
	return n, nil
}

// CountByCategory returns the number of items per category. Every category
// is present in the result, with zero when it has no items.
func (s *ItemStore) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM wardrobe_items GROUP BY category
	`)
	if err != nil {
		return nil, &domain.StoreError{Op: "count items by category", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var c domain.Category
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, &domain.StoreError{Op: "scan category count", Err: err}
		}
		counts[c] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate category counts", Err: err}
	}
	return counts, nil
}

// IDsByCategory returns every item id grouped by category, newest first.
// Image payloads are not loaded.
func (s *ItemStore) IDsByCategory(ctx context.Context) (map[domain.Category][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category FROM wardrobe_items ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list item ids", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	pools := make(map[domain.Category][]string, len(domain.Categories))
	for rows.Next() {
		var id string
		var c domain.Category
		if err := rows.Scan(&id, &c); err != nil {
			return nil, &domain.StoreError{Op: "scan item id", Err: err}
		}
		pools[c] = append(pools[c], id)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate item ids", Err: err}
	}
	return pools, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.WardrobeItem, error) {
	item := &domain.WardrobeItem{}
	var tags string
	if err := row.Scan(&item.ID, &item.Title, &item.Category, &item.ImageURL, &tags, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Tags = decodeTags(item.ID, tags)
	return item, nil
}
