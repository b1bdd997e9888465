package web_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/quickcloset/internal/db"
	"github.com/vbonduro/quickcloset/internal/domain"
	"github.com/vbonduro/quickcloset/internal/service"
	"github.com/vbonduro/quickcloset/internal/store"
	"github.com/vbonduro/quickcloset/internal/vision"
	"github.com/vbonduro/quickcloset/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

var jpegDataURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(minimalJPEG)

// recordingSuggester captures the image bytes passed to it and returns a
// pre-configured result.
type recordingSuggester struct {
	mu        sync.Mutex
	lastBytes []byte
	result    *vision.Suggestion
	err       error
}

func (r *recordingSuggester) Suggest(_ context.Context, rd io.Reader, _ string) (*vision.Suggestion, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("recordingSuggester: read image: %w", err)
	}
	r.mu.Lock()
	r.lastBytes = data
	r.mu.Unlock()
	return r.result, r.err
}

func (r *recordingSuggester) LastBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBytes
}

// failingPinger reports the database as down.
type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("database is closed") }

// newTestServer sets up a real web.Server backed by in-memory SQLite and the
// provided suggester, which may be nil.
func newTestServer(t *testing.T, suggester vision.Suggester) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	items := store.NewItemStore(database)
	outfits := store.NewOutfitStore(database)
	svc := service.NewWardrobeService(
		items,
		outfits,
		service.NewComposer(items, outfits, func(int) int { return 0 }),
		suggester,
		slog.Default(),
	)
	srv := httptest.NewServer(web.NewServer(svc, database, web.Options{CORSOrigin: "*", MaxBodyBytes: 1 << 20}, slog.Default()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

// do sends a JSON request and decodes the JSON response into out when out is
// non-nil. It returns the status code.
func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, url)
	}
	return resp.StatusCode
}

func createItem(t *testing.T, srv *httptest.Server, title string, c domain.Category) *domain.WardrobeItem {
	t.Helper()
	var item domain.WardrobeItem
	status := do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items", domain.ItemInput{
		Title:    title,
		Category: c,
		ImageURL: jpegDataURL,
		Tags:     []string{"casual"},
	}, &item)
	require.Equal(t, http.StatusCreated, status)
	return &item
}

func TestIntegration_ItemCRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	item := createItem(t, srv, "Blue Tee", domain.CategoryShirts)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, []string{"casual"}, item.Tags)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)

	var got domain.WardrobeItem
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items/"+item.ID, nil, &got))
	assert.Equal(t, *item, got)

	var updated domain.WardrobeItem
	require.Equal(t, http.StatusOK, do(t, http.MethodPut, srv.URL+"/tables/wardrobe_items/"+item.ID, domain.ItemInput{
		Title:    "Navy Tee",
		Category: domain.CategoryShirts,
	}, &updated))
	assert.Equal(t, "Navy Tee", updated.Title)
	assert.Empty(t, updated.ImageURL)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.GreaterOrEqual(t, updated.UpdatedAt, item.UpdatedAt)

	var deleted map[string]bool
	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/tables/wardrobe_items/"+item.ID, nil, &deleted))
	assert.True(t, deleted["success"])

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items/"+item.ID, nil, &errBody))
	assert.NotEmpty(t, errBody["error"])

	// Deleting again still reports success.
	assert.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/tables/wardrobe_items/"+item.ID, nil, nil))
}

func TestIntegration_ItemValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body domain.ItemInput
	}{
		{name: "empty title", body: domain.ItemInput{Title: "  ", Category: domain.CategoryShirts}},
		{name: "unknown category", body: domain.ItemInput{Title: "Hat", Category: "hats"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBody map[string]string
			assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items", tt.body, &errBody))
			assert.NotEmpty(t, errBody["error"])
		})
	}

	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPut, srv.URL+"/tables/wardrobe_items/missing",
		domain.ItemInput{Title: "X", Category: domain.CategoryShoes}, nil))

	resp, err := http.Post(srv.URL+"/tables/wardrobe_items", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_ListItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	createItem(t, srv, "Blue Tee", domain.CategoryShirts)
	createItem(t, srv, "Black Jeans", domain.CategoryPants)
	last := createItem(t, srv, "White Tee", domain.CategoryShirts)

	var page domain.Page[*domain.WardrobeItem]
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items", nil, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.Limit)
	require.Len(t, page.Data, 3)
	assert.Equal(t, last.ID, page.Data[0].ID)

	page = domain.Page[*domain.WardrobeItem]{}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items?category=shirts&limit=1&page=2", nil, &page))
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Blue Tee", page.Data[0].Title)

	page = domain.Page[*domain.WardrobeItem]{}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items?search=JEANS", nil, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Black Jeans", page.Data[0].Title)

	page = domain.Page[*domain.WardrobeItem]{}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items?page=9", nil, &page))
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.Total)

	for _, q := range []string{"page=0", "limit=0", "page=abc", "limit=-1", "category=hats"} {
		assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items?"+q, nil, nil), q)
	}
}

func TestIntegration_ItemImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	item := createItem(t, srv, "Blue Tee", domain.CategoryShirts)

	resp, err := http.Get(srv.URL + "/tables/wardrobe_items/" + item.ID + "/image")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minimalJPEG, body)

	var noImage domain.WardrobeItem
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items",
		domain.ItemInput{Title: "Plain", Category: domain.CategoryShoes}, &noImage))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items/"+noImage.ID+"/image", nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items/missing/image", nil, nil))
}

// Blue Tee and Black Jeans saved as "Casual"; deleting the tee leaves the
// outfit with a missing shirt and the jeans still resolved.
func TestIntegration_OutfitSurvivesItemDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	a := createItem(t, srv, "Blue Tee", domain.CategoryShirts)
	b := createItem(t, srv, "Black Jeans", domain.CategoryPants)

	var outfit domain.SavedOutfit
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/tables/saved_outfits", map[string]any{
		"outfit_name": "Casual",
		"shirt_id":    a.ID,
		"pants_id":    b.ID,
		"shoes_id":    "",
	}, &outfit))
	assert.Equal(t, "Casual", outfit.Name)
	require.NotNil(t, outfit.Shirt)
	assert.Equal(t, a.ID, *outfit.Shirt)
	assert.Nil(t, outfit.Accessories)
	assert.Nil(t, outfit.Shoes)

	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/tables/wardrobe_items/"+a.ID, nil, nil))

	var stored domain.SavedOutfit
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits/"+outfit.ID, nil, &stored))
	require.NotNil(t, stored.Shirt)
	assert.Equal(t, a.ID, *stored.Shirt)

	var resolved domain.ResolvedOutfit
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits/"+outfit.ID+"/resolved", nil, &resolved))
	require.Len(t, resolved.Slots, 4)
	assert.True(t, resolved.Slots[0].Missing)
	require.NotNil(t, resolved.Slots[1].Item)
	assert.Equal(t, "Black Jeans", resolved.Slots[1].Item.Title)
}

func TestIntegration_OutfitValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)
	shoe := createItem(t, srv, "Sneakers", domain.CategoryShoes)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "empty selection", body: map[string]any{"outfit_name": "Nothing"}},
		{name: "blank refs", body: map[string]any{"outfit_name": "Nothing", "shirt_id": "", "pants_id": nil}},
		{name: "missing name", body: map[string]any{"shoes_id": shoe.ID}},
		{name: "missing item", body: map[string]any{"outfit_name": "Ghost", "shirt_id": "does-not-exist"}},
		{name: "wrong slot", body: map[string]any{"outfit_name": "Odd", "shirt_id": shoe.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBody map[string]string
			assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/tables/saved_outfits", tt.body, &errBody))
			assert.NotEmpty(t, errBody["error"])
		})
	}

	var page domain.Page[*domain.SavedOutfit]
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits", nil, &page))
	assert.Zero(t, page.Total)
}

func TestIntegration_OutfitListAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)
	shoe := createItem(t, srv, "Sneakers", domain.CategoryShoes)

	var first, second domain.SavedOutfit
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/tables/saved_outfits",
		map[string]any{"outfit_name": "First", "shoes_id": shoe.ID}, &first))
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/tables/saved_outfits",
		map[string]any{"outfit_name": "Second", "shoes_id": shoe.ID, "notes": "rainy days"}, &second))
	assert.Equal(t, "rainy days", second.Notes)

	var page domain.Page[*domain.SavedOutfit]
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits?limit=10", nil, &page))
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, second.ID, page.Data[0].ID)

	require.Equal(t, http.StatusOK, do(t, http.MethodDelete, srv.URL+"/tables/saved_outfits/"+first.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits/"+first.ID, nil, nil))
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items/"+shoe.ID, nil, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/tables/saved_outfits?page=0", nil, nil))
}

func TestIntegration_RandomAndStats(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	shirt := createItem(t, srv, "Blue Tee", domain.CategoryShirts)
	createItem(t, srv, "Black Jeans", domain.CategoryPants)

	var sel domain.Selection
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/outfits/random", nil, &sel))
	require.NotNil(t, sel.Shirt)
	assert.Equal(t, shirt.ID, *sel.Shirt)
	assert.NotNil(t, sel.Pants)
	assert.Nil(t, sel.Accessories)
	assert.Nil(t, sel.Shoes)

	var stats domain.Stats
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/stats", nil, &stats))
	assert.Equal(t, 2, stats.TotalItems)
	assert.Zero(t, stats.TotalOutfits)
	assert.Len(t, stats.ByCategory, 4)
	assert.Equal(t, 1, stats.ByCategory[domain.CategoryShirts])
	assert.Equal(t, 0, stats.ByCategory[domain.CategoryShoes])
}

func TestIntegration_Suggest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	sugg := &recordingSuggester{result: &vision.Suggestion{
		Title:    "Blue Tee",
		Category: domain.CategoryShirts,
		Tags:     []string{"blue", "cotton"},
	}}
	srv := newTestServer(t, sugg)

	var got vision.Suggestion
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items/suggest",
		map[string]string{"image_url": jpegDataURL}, &got))
	assert.Equal(t, "Blue Tee", got.Title)
	assert.Equal(t, domain.CategoryShirts, got.Category)
	assert.Equal(t, []string{"blue", "cotton"}, got.Tags)
	assert.Equal(t, minimalJPEG, sugg.LastBytes())

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items/suggest",
		map[string]string{"image_url": "https://example.com/tee.jpg"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, srv.URL+"/tables/wardrobe_items/suggest",
		map[string]string{}, nil))
}

func TestIntegration_SuggestFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	disabled := newTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, http.MethodPost, disabled.URL+"/tables/wardrobe_items/suggest",
		map[string]string{"image_url": jpegDataURL}, nil))

	broken := newTestServer(t, &recordingSuggester{err: vision.ErrNoSuggestion})
	assert.Equal(t, http.StatusBadGateway, do(t, http.MethodPost, broken.URL+"/tables/wardrobe_items/suggest",
		map[string]string{"image_url": jpegDataURL}, nil))
}

func TestIntegration_BodyLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	big, err := json.Marshal(domain.ItemInput{Title: "Huge", Category: domain.CategoryShirts, ImageURL: strings.Repeat("A", 2<<20)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tables/wardrobe_items", bytes.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var page domain.Page[*domain.WardrobeItem]
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, srv.URL+"/tables/wardrobe_items", nil, &page))
	assert.Zero(t, page.Total)
}

func TestIntegration_Headers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tables/wardrobe_items", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthDatabaseDown(t *testing.T) {
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	items := store.NewItemStore(database)
	outfits := store.NewOutfitStore(database)
	svc := service.NewWardrobeService(items, outfits, service.NewComposer(items, outfits, nil), nil, slog.Default())
	server := web.NewServer(svc, failingPinger{}, web.Options{CORSOrigin: "*", MaxBodyBytes: 1024}, slog.Default())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unavailable")
}
