package editor

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Screen is the product edit screen bound to its state and collaborators.
// A Screen is not safe for concurrent use; callers load, mutate and persist
// the state per request.
type Screen struct {
	catalog   Catalog
	images    ImageStorage
	previews  PreviewStore
	notifier  Notifier
	navigator Navigator
	locker    Locker
	recorder  Recorder
	logger    *slog.Logger
	state     *State
}

// NewScreen binds collaborators to a state. A nil state starts empty.
func NewScreen(deps Deps, state *State) *Screen {
	s := &Screen{
		catalog:   deps.Catalog,
		images:    deps.Images,
		previews:  deps.Previews,
		notifier:  deps.Notifier,
		navigator: deps.Navigator,
		locker:    deps.Locker,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
		state:     state,
	}
	if s.state == nil {
		s.state = NewState("")
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.navigator == nil {
		s.navigator = noopNavigator{}
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// State exposes the current screen state.
func (s *Screen) State() *State {
	return s.state
}

// Mount starts a fresh screen for productID and runs the loader.
func (s *Screen) Mount(ctx context.Context, productID string) error {
	s.state = NewState(strings.TrimSpace(productID))
	return s.Load(ctx)
}

// Load fetches categories and the product concurrently. Failures are turned
// into screen state and notifications; the returned error is informational.
// A product that differs from the one already loaded re-initialises the draft.
func (s *Screen) Load(ctx context.Context) error {
	st := s.state
	if st.ProductID == "" {
		st.Loading = false
		st.LoadFailed = true
		s.notifier.Error(msgInvalidProductID)
		return ErrMissingProductID
	}

	st.Loading = true
	st.CategoryError = ""

	var (
		categories  []Category
		product     Product
		categoryErr error
		productErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		categories, categoryErr = s.catalog.ListCategories(ctx)
		return nil
	})
	g.Go(func() error {
		product, productErr = s.catalog.GetProduct(ctx, st.ProductID)
		return nil
	})
	_ = g.Wait()

	if categoryErr != nil {
		s.logger.Error("fetch categories", slog.Any("error", categoryErr))
		st.Categories = CategorySet{}
		st.CategoryError = msgCategoriesBanner
		s.notifier.Error(msgFetchCategories)
	} else {
		st.Categories = CategorySet(categories)
	}

	st.Loading = false
	if productErr != nil {
		s.logger.Error("fetch product", slog.String("product_id", st.ProductID), slog.Any("error", productErr))
		s.notifier.Error(msgFetchProductFailed)
		if st.Product == nil {
			st.LoadFailed = true
		}
		return errors.Join(categoryErr, productErr)
	}

	st.LoadFailed = false
	if st.Product == nil || !sameProduct(*st.Product, product) {
		st.reset(product)
	} else {
		st.Errors = Validate(st.Draft, st.Categories)
	}
	return categoryErr
}

// SetField writes a draft value. Editing the tax exclusive price or the tax
// rate recomputes the price.
func (s *Screen) SetField(field, value string) error {
	if !s.state.Ready() {
		return ErrNotLoaded
	}
	if field == FieldIsOnSale {
		s.SetOnSale(parseToggle(value))
		return nil
	}
	if !s.state.Draft.set(field, value) {
		return ErrUnknownField
	}
	s.revalidate()
	return nil
}

// SetOnSale toggles the sale flag.
func (s *Screen) SetOnSale(on bool) {
	s.state.Draft.setOnSale(on)
	s.revalidate()
}

// Touch marks a field as interacted with.
func (s *Screen) Touch(field string) error {
	if field != FieldIsOnSale {
		if _, ok := s.state.Draft.Value(field); !ok {
			return ErrUnknownField
		}
	}
	if s.state.Touched == nil {
		s.state.Touched = map[string]bool{}
	}
	s.state.Touched[field] = true
	return nil
}

func (s *Screen) touchAll() {
	for _, f := range TextFields {
		_ = s.Touch(f)
	}
	_ = s.Touch(FieldIsOnSale)
}

func (s *Screen) revalidate() {
	s.state.Errors = Validate(s.state.Draft, s.state.Categories)
}

// sameProduct compares records, treating nil and empty lists alike since
// stored state round-trips through JSON.
func sameProduct(a, b Product) bool {
	return reflect.DeepEqual(normalizeProduct(a), normalizeProduct(b))
}

func normalizeProduct(p Product) Product {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

func parseToggle(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "on", "yes":
		return true
	}
	return false
}
