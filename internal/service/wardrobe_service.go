package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/quickcloset/internal/domain"
	"github.com/vbonduro/quickcloset/internal/vision"
)

// ErrSuggestionsDisabled is returned by SuggestTags when no vision backend
// is configured.
var ErrSuggestionsDisabled = errors.New("tag suggestions are disabled")

// itemRepository is the subset of store.ItemStore that WardrobeService requires.
type itemRepository interface {
	itemLookup
	List(ctx context.Context, filter domain.ItemFilter, page domain.PageRequest) (*domain.Page[*domain.WardrobeItem], error)
	Create(ctx context.Context, in domain.ItemInput) (*domain.WardrobeItem, error)
	Update(ctx context.Context, id string, in domain.ItemInput) (*domain.WardrobeItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context) (map[domain.Category]int, error)
}

// outfitRepository is the subset of store.OutfitStore that WardrobeService requires.
type outfitRepository interface {
	outfitCreator
	GetByID(ctx context.Context, id string) (*domain.SavedOutfit, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[*domain.SavedOutfit], error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type WardrobeService struct {
	items     itemRepository
	outfits   outfitRepository
	composer  *Composer
	suggester vision.Suggester
	logger    *slog.Logger
}

// NewWardrobeService wires the facade. suggester may be nil, in which case
// SuggestTags returns ErrSuggestionsDisabled.
func NewWardrobeService(
	items itemRepository,
	outfits outfitRepository,
	composer *Composer,
	suggester vision.Suggester,
	logger *slog.Logger,
) *WardrobeService {
	return &WardrobeService{
		items:     items,
		outfits:   outfits,
		composer:  composer,
		suggester: suggester,
		logger:    logger,
	}
}

// logStoreError logs persistence failures. Validation and not-found errors
// are the caller's fault and are not logged here.
func (s *WardrobeService) logStoreError(op string, err error) {
	var se *domain.StoreError
	if errors.As(err, &se) {
		s.logger.Error("store operation failed", "op", op, "error", err)
	}
}

func (s *WardrobeService) ListItems(ctx context.Context, filter domain.ItemFilter, page domain.PageRequest) (*domain.Page[*domain.WardrobeItem], error) {
	result, err := s.items.List(ctx, filter, page)
	if err != nil {
		s.logStoreError("list items", err)
		return nil, err
	}
	return result, nil
}

// GetItem returns domain.ErrNotFound when the item does not exist.
func (s *WardrobeService) GetItem(ctx context.Context, id string) (*domain.WardrobeItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		s.logStoreError("get item", err)
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (s *WardrobeService) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.WardrobeItem, error) {
	item, err := s.items.Create(ctx, in)
	if err != nil {
		s.logStoreError("create item", err)
		return nil, err
	}
	s.logger.Info("item created", "item_id", item.ID, "category", item.Category)
	return item, nil
}

func (s *WardrobeService) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.WardrobeItem, error) {
	item, err := s.items.Update(ctx, id, in)
	if err != nil {
		s.logStoreError("update item", err)
		return nil, err
	}
	return item, nil
}

// DeleteItem removes the item and reports whether it existed. Saved outfits
// that reference it keep the dangling reference.
func (s *WardrobeService) DeleteItem(ctx context.Context, id string) (bool, error) {
	deleted, err := s.items.Delete(ctx, id)
	if err != nil {
		s.logStoreError("delete item", err)
		return false, err
	}
	if deleted {
		s.logger.Info("item deleted", "item_id", id)
	}
	return deleted, nil
}

func (s *WardrobeService) ListOutfits(ctx context.Context, page domain.PageRequest) (*domain.Page[*domain.SavedOutfit], error) {
	result, err := s.outfits.List(ctx, page)
	if err != nil {
		s.logStoreError("list outfits", err)
		return nil, err
	}
	return result, nil
}

// GetOutfit returns domain.ErrNotFound when the outfit does not exist.
func (s *WardrobeService) GetOutfit(ctx context.Context, id string) (*domain.SavedOutfit, error) {
	outfit, err := s.outfits.GetByID(ctx, id)
	if err != nil {
		s.logStoreError("get outfit", err)
		return nil, err
	}
	if outfit == nil {
		return nil, fmt.Errorf("outfit %s: %w", id, domain.ErrNotFound)
	}
	return outfit, nil
}

func (s *WardrobeService) SaveOutfit(ctx context.Context, name, notes string, sel domain.Selection) (*domain.SavedOutfit, error) {
	outfit, err := s.composer.Compose(ctx, name, notes, sel)
	if err != nil {
		s.logStoreError("save outfit", err)
		return nil, err
	}
	s.logger.Info("outfit saved", "outfit_id", outfit.ID, "name", outfit.Name)
	return outfit, nil
}

func (s *WardrobeService) ResolveOutfit(ctx context.Context, id string) (*domain.ResolvedOutfit, error) {
	outfit, err := s.GetOutfit(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved, err := s.composer.Resolve(ctx, outfit)
	if err != nil {
		s.logStoreError("resolve outfit", err)
		return nil, err
	}
	return resolved, nil
}

func (s *WardrobeService) DeleteOutfit(ctx context.Context, id string) (bool, error) {
	deleted, err := s.outfits.Delete(ctx, id)
	if err != nil {
		s.logStoreError("delete outfit", err)
		return false, err
	}
	if deleted {
		s.logger.Info("outfit deleted", "outfit_id", id)
	}
	return deleted, nil
}

func (s *WardrobeService) RandomOutfit(ctx context.Context) (domain.Selection, error) {
	sel, err := s.composer.RandomSelection(ctx)
	if err != nil {
		s.logStoreError("random outfit", err)
		return domain.Selection{}, err
	}
	return sel, nil
}

func (s *WardrobeService) Stats(ctx context.Context) (*domain.Stats, error) {
	byCategory, err := s.items.CountByCategory(ctx)
	if err != nil {
		s.logStoreError("count items by category", err)
		return nil, err
	}
	totalItems, err := s.items.Count(ctx)
	if err != nil {
		s.logStoreError("count items", err)
		return nil, err
	}
	totalOutfits, err := s.outfits.Count(ctx)
	if err != nil {
		s.logStoreError("count outfits", err)
		return nil, err
	}
	return &domain.Stats{TotalItems: totalItems, TotalOutfits: totalOutfits, ByCategory: byCategory}, nil
}

// SuggestTags asks the configured vision backend to describe an image.
func (s *WardrobeService) SuggestTags(ctx context.Context, imageData []byte, mimeType string) (*vision.Suggestion, error) {
	if s.suggester == nil {
		return nil, ErrSuggestionsDisabled
	}

	s.logger.Info("tag suggestion started", "mime_type", mimeType, "bytes", len(imageData))
	suggestion, err := s.suggester.Suggest(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		s.logger.Error("tag suggestion failed", "error", err)
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}
	s.logger.Info("tag suggestion complete", "title", suggestion.Title, "category", suggestion.Category, "tags", len(suggestion.Tags))
	return suggestion, nil
}
