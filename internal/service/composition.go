package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/quickcloset/internal/domain"
)

// itemLookup is the subset of store.ItemStore that Composer requires.
type itemLookup interface {
	GetByID(ctx context.Context, id string) (*domain.WardrobeItem, error)
	IDsByCategory(ctx context.Context) (map[domain.Category][]string, error)
}

// outfitCreator is the subset of store.OutfitStore that Composer requires.
type outfitCreator interface {
	Create(ctx context.Context, in domain.OutfitInput) (*domain.SavedOutfit, error)
}

// BuildOutfit turns a selection into an outfit create request. Blank
// references count as empty slots.
func BuildOutfit(name, notes string, sel domain.Selection) (domain.OutfitInput, error) {
	sel = sel.Normalized()
	if sel.Empty() {
		return domain.OutfitInput{}, domain.ErrEmptySelection
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.OutfitInput{}, &domain.ValidationError{Field: "outfit_name", Reason: "required"}
	}
	return domain.OutfitInput{Name: name, Selection: sel, Notes: notes}, nil
}

// Randomize picks, independently for each slot, a uniformly random id from
// the pool of the slot's category. Slots whose pool is empty stay empty.
// intn must return a value in [0, n).
func Randomize(pools map[domain.Category][]string, intn func(n int) int) domain.Selection {
	var sel domain.Selection
	for _, slot := range domain.Slots {
		pool := pools[slot.Category()]
		if len(pool) == 0 {
			continue
		}
		sel.Set(slot, pool[intn(len(pool))])
	}
	return sel
}

// Composer validates selections against the catalog, persists outfits and
// joins them back to their items.
type Composer struct {
	items   itemLookup
	outfits outfitCreator
	intn    func(n int) int
}

func NewComposer(items itemLookup, outfits outfitCreator, intn func(n int) int) *Composer {
	return &Composer{items: items, outfits: outfits, intn: intn}
}

// Compose checks that every chosen item exists and sits in the slot's
// category, then saves the outfit.
func (c *Composer) Compose(ctx context.Context, name, notes string, sel domain.Selection) (*domain.SavedOutfit, error) {
	in, err := BuildOutfit(name, notes, sel)
	if err != nil {
		return nil, err
	}

	for _, slot := range domain.Slots {
		ref := in.Selection.Get(slot)
		if ref == nil {
			continue
		}
		item, err := c.items.GetByID(ctx, *ref)
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s: %w", slot.Field(), err)
		}
		if item == nil {
			return nil, &domain.ValidationError{Field: slot.Field(), Reason: fmt.Sprintf("item %s does not exist", *ref)}
		}
		if item.Category != slot.Category() {
			return nil, &domain.ValidationError{
				Field:  slot.Field(),
				Reason: fmt.Sprintf("item %s is %s, not %s", *ref, item.Category, slot.Category()),
			}
		}
	}

	return c.outfits.Create(ctx, in)
}

// Resolve joins each slot of the outfit with the catalog. A reference to an
// item that has since been deleted is reported as missing, not as an error.
func (c *Composer) Resolve(ctx context.Context, outfit *domain.SavedOutfit) (*domain.ResolvedOutfit, error) {
	resolved := &domain.ResolvedOutfit{
		Outfit: outfit,
		Slots:  make([]*domain.ResolvedSlot, 0, len(domain.Slots)),
	}
	for _, slot := range domain.Slots {
		rs := &domain.ResolvedSlot{Slot: slot, ItemID: outfit.Get(slot)}
		if rs.ItemID != nil {
			item, err := c.items.GetByID(ctx, *rs.ItemID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", slot.Field(), err)
			}
			rs.Item = item
			rs.Missing = item == nil
		}
		resolved.Slots = append(resolved.Slots, rs)
	}
	return resolved, nil
}

// RandomSelection draws a random selection from the current catalog. Nothing
// is persisted.
func (c *Composer) RandomSelection(ctx context.Context) (domain.Selection, error) {
	pools, err := c.items.IDsByCategory(ctx)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	return Randomize(pools, c.intn), nil
}
