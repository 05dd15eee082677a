package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
	"github.com/odyssey-erp/storefront-admin/internal/editor/store"
	"github.com/odyssey-erp/storefront-admin/internal/shared"
	"github.com/odyssey-erp/storefront-admin/internal/view"
	_ "github.com/odyssey-erp/storefront-admin/testing"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type stubCatalog struct {
	mu          sync.Mutex
	categories  []editor.Category
	categoryErr error
	product     editor.Product
	productErr  error
	uploads     [][]editor.ImageFile
	updates     []editor.UpdatePayload
}

func (c *stubCatalog) ListCategories(ctx context.Context) ([]editor.Category, error) {
	return c.categories, c.categoryErr
}

func (c *stubCatalog) GetProduct(ctx context.Context, id string) (editor.Product, error) {
	if c.productErr != nil {
		return editor.Product{}, c.productErr
	}
	return c.product, nil
}

func (c *stubCatalog) UploadImages(ctx context.Context, files []editor.ImageFile) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads = append(c.uploads, files)
	refs := make([]string, len(files))
	for i, f := range files {
		refs[i] = "https://cdn.test/uploaded/" + f.Name
	}
	return refs, nil
}

func (c *stubCatalog) UpdateProduct(ctx context.Context, id string, payload editor.UpdatePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, payload)
	return nil
}

type stubStorage struct {
	deleted []string
}

func (s *stubStorage) DeleteImage(ctx context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return nil
}

type testEnv struct {
	router  http.Handler
	catalog *stubCatalog
	storage *stubStorage
	states  *store.StateStore
	sess    *shared.Session
}

func sampleProduct() editor.Product {
	discount := 90.0
	return editor.Product{
		ID:                "p-1",
		Name:              "Desk Lamp",
		Description:       "Warm light",
		Price:             118,
		StockQuantity:     12,
		CategoryID:        "c-1",
		Tags:              []string{"home", "light"},
		IsOnSale:          true,
		DiscountPrice:     &discount,
		Barcode:           "8991234567890",
		TaxExclusivePrice: 100,
		Tax:               18,
		BannerLabel:       "New",
		Images:            []string{"https://cdn.test/a.png", "https://cdn.test/b.png"},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := view.NewEngine()
	require.NoError(t, err)

	env := &testEnv{
		catalog: &stubCatalog{
			categories: []editor.Category{{ID: "c-1", Name: "Lighting"}, {ID: "c-2", Name: "Desks"}},
			product:    sampleProduct(),
		},
		storage: &stubStorage{},
		states:  store.NewStateStore(client, time.Hour),
		sess:    &shared.Session{ID: uuid.NewString()},
	}
	handler := NewHandler(Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Templates: engine,
		CSRF:      shared.NewCSRFManager("test-secret"),
		Catalog:   env.catalog,
		Images:    env.storage,
		States:    env.states,
		Previews:  store.NewPreviewStore(client, time.Hour),
		Locks:     store.NewSubmitLocks(client, time.Minute),
	})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), env.sess)))
		})
	})
	handler.MountRoutes(r)
	env.router = r
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) postFiles(t *testing.T, path string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req)
}

func (e *testEnv) state(t *testing.T) *editor.State {
	t.Helper()
	st, err := e.states.Load(context.Background(), e.sess.ID, "p-1")
	require.NoError(t, err)
	return st
}

func flashMessages(sess *shared.Session) []string {
	var out []string
	for _, f := range sess.PopFlashes() {
		out = append(out, f.Message)
	}
	return out
}

func TestShowEditRendersForm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/products/p-1/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Desk Lamp"`)
	assert.Contains(t, body, `<option value="c-1" selected>Lighting</option>`)
	assert.Contains(t, body, `src="https://cdn.test/a.png"`)
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Contains(t, body, `id="price" name="price" type="text" value="118"`)

	st := env.state(t)
	require.NotNil(t, st)
	assert.True(t, st.Ready())
	assert.NotEmpty(t, env.sess.Get(shared.CSRFSessionKey))
}

func TestShowEditCategoryFailureKeepsForm(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.categoryErr = errors.New("boom")

	rec := env.get("/products/p-1/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Failed to fetch categories. Please try again later.")
	assert.Contains(t, body, "Failed to fetch categories.")
	assert.Contains(t, body, `value="Desk Lamp"`)
}

func TestShowEditProductFailure(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.productErr = errors.New("down")

	rec := env.get("/products/p-1/edit")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Product unavailable")
	assert.Contains(t, body, "Failed to fetch product data")
}

func TestChangeFieldRecomputesPrice(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postJSON("/products/p-1/edit/field", map[string]any{"name": "tax", "value": 10, "blur": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fieldResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "110.00", resp.Price)
	assert.Equal(t, "10", resp.Draft.Tax)
	assert.Empty(t, resp.Errors)

	st := env.state(t)
	assert.Equal(t, "110.00", st.Draft.Price)
	assert.True(t, st.Touched[editor.FieldTax])
}

func TestChangeFieldShowsTouchedErrors(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postJSON("/products/p-1/edit/field", map[string]any{"name": "name", "value": "", "blur": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fieldResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Please enter a product title", resp.Errors[editor.FieldName])
}

func TestChangeFieldRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON("/products/p-1/edit/field", map[string]any{"name": "tax", "value": "5"})
	assert.Equal(t, http.StatusConflict, rec.Code, "screen not loaded yet")

	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)
	rec = env.postJSON("/products/p-1/edit/field", map[string]any{"name": "colour", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postJSON("/products/p-1/edit/field", map[string]any{"value": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageSelectionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postFiles(t, "/products/p-1/edit/images", map[string][]byte{"new.png": pngBytes})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products/p-1/edit#images", rec.Header().Get("Location"))

	st := env.state(t)
	require.Len(t, st.SelectedFiles, 1)
	handle := st.SelectedFiles[0].Handle
	assert.Equal(t, "image/png", st.SelectedFiles[0].ContentType)

	preview := env.get("/products/p-1/edit/previews/" + handle)
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, "image/png", preview.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, preview.Body.Bytes())

	rec = env.postForm("/products/p-1/edit/images/selected/"+handle+"/remove", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.state(t).SelectedFiles)
	assert.Equal(t, http.StatusNotFound, env.get("/products/p-1/edit/previews/"+handle).Code)
}

func TestAddImagesFlashesRejections(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)
	env.sess.PopFlashes()

	rec := env.postFiles(t, "/products/p-1/edit/images", map[string][]byte{"notes.txt": []byte("plain text")})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.state(t).SelectedFiles)
	assert.Equal(t, []string{"notes.txt: Unsupported file type."}, flashMessages(env.sess))
}

func TestPreviewUnknownHandle(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.get("/products/p-1/edit/previews/" + uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveExistingImage(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postForm("/products/p-1/edit/images/existing/remove", url.Values{"ref": {"https://cdn.test/a.png"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"https://cdn.test/a.png"}, env.storage.deleted)
	assert.Equal(t, []string{"https://cdn.test/b.png"}, env.state(t).ExistingImages)
}

func TestSubmitUpdatesProduct(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)
	rec := env.postFiles(t, "/products/p-1/edit/images", map[string][]byte{"new.png": pngBytes})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	env.sess.PopFlashes()

	rec = env.postForm("/products/p-1/edit", url.Values{
		"name":     {"Desk Lamp XL"},
		"tags":     {" home , , office "},
		"isOnSale": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, editor.ProductListPath, rec.Header().Get("Location"))

	require.Len(t, env.catalog.uploads, 1)
	require.Len(t, env.catalog.updates, 1)
	payload := env.catalog.updates[0]
	assert.Equal(t, "Desk Lamp XL", payload.Name)
	assert.Equal(t, []string{"home", "office"}, payload.Tags)
	assert.Equal(t, []string{"https://cdn.test/a.png", "https://cdn.test/b.png", "https://cdn.test/uploaded/new.png"}, payload.Images)
	require.NotNil(t, payload.DiscountPrice)
	assert.Equal(t, 90.0, *payload.DiscountPrice)
	assert.Equal(t, []string{"Product updated successfully"}, flashMessages(env.sess))

	assert.Nil(t, env.state(t), "state is dropped after a successful update")
}

func TestSubmitWithoutImagesStaysOnForm(t *testing.T) {
	env := newTestEnv(t)
	product := sampleProduct()
	product.Images = nil
	env.catalog.product = product
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postForm("/products/p-1/edit", url.Values{"name": {"Desk Lamp"}, "isOnSale": {"true"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products/p-1/edit#images", rec.Header().Get("Location"))
	assert.Empty(t, env.catalog.updates)

	page := env.get("/products/p-1/edit")
	assert.Contains(t, page.Body.String(), "Please upload at least one product image.")
}

func TestSubmitBeforeLoadRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm("/products/p-1/edit", url.Values{"name": {"x"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products/p-1/edit", rec.Header().Get("Location"))
	assert.Empty(t, env.catalog.updates)
}

func TestDiscardDropsState(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.get("/products/p-1/edit").Code)

	rec := env.postForm("/products/p-1/edit/discard", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, editor.ProductListPath, rec.Header().Get("Location"))
	assert.Nil(t, env.state(t))
}

func TestProductList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(editor.ProductListPath + "?id=p-9")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products/p-9/edit", rec.Header().Get("Location"))

	rec = env.get(editor.ProductListPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="id"`)
}
