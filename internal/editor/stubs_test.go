package editor

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func sampleProduct() Product {
	discount := 90.0
	return Product{
		ID:                "p-1",
		Name:              "Desk Lamp",
		Description:       "<p>Warm light</p>",
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

type stubCatalog struct {
	mu          sync.Mutex
	categories  []Category
	categoryErr error
	product     Product
	productErr  error
	uploadErr   error
	updateErr   error

	uploads [][]ImageFile
	updates []UpdatePayload
}

func (c *stubCatalog) ListCategories(ctx context.Context) ([]Category, error) {
	if c.categoryErr != nil {
		return nil, c.categoryErr
	}
	return c.categories, nil
}

func (c *stubCatalog) GetProduct(ctx context.Context, id string) (Product, error) {
	if c.productErr != nil {
		return Product{}, c.productErr
	}
	return c.product, nil
}

func (c *stubCatalog) UploadImages(ctx context.Context, files []ImageFile) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads = append(c.uploads, files)
	if c.uploadErr != nil {
		return nil, c.uploadErr
	}
	refs := make([]string, len(files))
	for i := range files {
		refs[i] = "https://cdn.test/new-" + strconv.Itoa(i) + ".png"
	}
	return refs, nil
}

func (c *stubCatalog) UpdateProduct(ctx context.Context, id string, payload UpdatePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, payload)
	return c.updateErr
}

type stubStorage struct {
	deleted []string
	err     error
}

func (s *stubStorage) DeleteImage(ctx context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return s.err
}

type memPreviews struct {
	next     int
	items    map[string]Preview
	released map[string]int
	err      error
}

func newMemPreviews() *memPreviews {
	return &memPreviews{items: map[string]Preview{}, released: map[string]int{}}
}

func (m *memPreviews) Acquire(ctx context.Context, p Preview) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.next++
	handle := "h" + strconv.Itoa(m.next)
	m.items[handle] = p
	return handle, nil
}

func (m *memPreviews) Open(ctx context.Context, handle string) (Preview, error) {
	p, ok := m.items[handle]
	if !ok {
		return Preview{}, ErrPreviewNotFound
	}
	return p, nil
}

func (m *memPreviews) Release(ctx context.Context, handle string) error {
	m.released[handle]++
	delete(m.items, handle)
	return nil
}

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) Navigate(path string) { n.paths = append(n.paths, path) }

type busyLocker struct{}

func (busyLocker) TryLock(ctx context.Context) (func(), error) {
	return nil, ErrSubmitInFlight
}

type fixture struct {
	catalog  *stubCatalog
	storage  *stubStorage
	previews *memPreviews
	notifier *recordingNotifier
	nav      *recordingNavigator
	screen   *Screen
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &stubCatalog{
			categories: []Category{{ID: "c-1", Name: "Lighting"}, {ID: "c-2", Name: "Office"}},
			product:    sampleProduct(),
		},
		storage:  &stubStorage{},
		previews: newMemPreviews(),
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
	}
	f.screen = NewScreen(Deps{
		Catalog:   f.catalog,
		Images:    f.storage,
		Previews:  f.previews,
		Notifier:  f.notifier,
		Navigator: f.nav,
	}, nil)
	return f
}

var errBoom = errors.New("boom")
