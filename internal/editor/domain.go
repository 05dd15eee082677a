// Package editor implements the product edit screen of the storefront admin:
// loading a product with its categories, holding the editable draft with its
// validation state, staging image changes and submitting the update.
//
// The package is transport agnostic. Remote calls, notifications and route
// changes go through the collaborator interfaces declared here.
package editor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
)

// ProductListPath is where the screen navigates after a successful update.
const ProductListPath = "/apps-ecommerce-products"

// Product mirrors the product record served by the storefront API.
type Product struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	StockQuantity     int      `json:"stockQuantity"`
	CategoryID        string   `json:"categoryId"`
	Tags              []string `json:"tags"`
	IsOnSale          bool     `json:"isOnSale"`
	DiscountPrice     *float64 `json:"discountPrice"`
	Barcode           string   `json:"barcode"`
	TaxExclusivePrice float64  `json:"taxExclusivePrice"`
	Tax               float64  `json:"tax"`
	BannerLabel       string   `json:"bannerLabel"`
	LowStockAlert     *int     `json:"lowStockAlert"`
	Images            []string `json:"images"`
}

// Category is read-only reference data for the category picker.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategorySet keeps categories in API order.
type CategorySet []Category

// Has reports whether id references a loaded category.
func (s CategorySet) Has(id string) bool {
	for _, c := range s {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Map flattens the set into id -> name.
func (s CategorySet) Map() map[string]string {
	out := make(map[string]string, len(s))
	for _, c := range s {
		out[c.ID] = c.Name
	}
	return out
}

// ImageFile is a staged file sent to the upload endpoint.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UpdatePayload is the body of the product update request.
type UpdatePayload struct {
	Name              string
	Description       string
	Price             float64
	StockQuantity     int
	CategoryID        string
	Images            []string
	Tags              []string
	IsOnSale          bool
	DiscountPrice     *float64
	Barcode           string
	TaxExclusivePrice float64
	Tax               float64
	BannerLabel       string
	LowStockAlert     *int
}

// Catalog is the storefront API consumed by the screen.
type Catalog interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	UploadImages(ctx context.Context, files []ImageFile) ([]string, error)
	UpdateProduct(ctx context.Context, id string, payload UpdatePayload) error
}

// ImageStorage deletes images that are already attached to a product.
type ImageStorage interface {
	DeleteImage(ctx context.Context, ref string) error
}

// Preview is a locally staged file behind a preview handle.
type Preview struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reader returns the preview content as a stream.
func (p Preview) Reader() io.Reader {
	return bytes.NewReader(p.Data)
}

// PreviewStore hands out temporary preview handles. Release must be safe to
// call for a handle that is already gone.
type PreviewStore interface {
	Acquire(ctx context.Context, preview Preview) (string, error)
	Open(ctx context.Context, handle string) (Preview, error)
	Release(ctx context.Context, handle string) error
}

// Notifier shows toast style messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator changes the current route.
type Navigator interface {
	Navigate(path string)
}

// Locker guards a draft against concurrent submissions. TryLock returns
// ErrSubmitInFlight when another submission holds the lock.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), err error)
}

// Recorder receives screen level counters.
type Recorder interface {
	RecordSubmission(outcome string)
	RecordUploadedImages(n int)
	RecordRejectedFile(reason string)
}

// Deps groups the collaborators of a Screen.
type Deps struct {
	Catalog   Catalog
	Images    ImageStorage
	Previews  PreviewStore
	Notifier  Notifier
	Navigator Navigator
	Locker    Locker
	Recorder  Recorder
	Logger    *slog.Logger
}

type noopRecorder struct{}

func (noopRecorder) RecordSubmission(string) {}
func (noopRecorder) RecordUploadedImages(int) {}
func (noopRecorder) RecordRejectedFile(string) {}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string) {}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}
