package editor

import "errors"

var (
	// ErrMissingProductID is returned when the screen is mounted without an id.
	ErrMissingProductID = errors.New("editor: product id missing")
	// ErrNotLoaded indicates an operation that needs a loaded product.
	ErrNotLoaded = errors.New("editor: product not loaded")
	// ErrUnknownField is returned for a field name outside the draft.
	ErrUnknownField = errors.New("editor: unknown field")
	// ErrInvalidDraft blocks submission while field errors remain.
	ErrInvalidDraft = errors.New("editor: draft has validation errors")
	// ErrNoImages blocks submission of a product without images.
	ErrNoImages = errors.New("editor: product needs at least one image")
	// ErrUnknownImage is returned when removing an image that is not listed.
	ErrUnknownImage = errors.New("editor: image not found")
	// ErrSubmitInFlight is returned while another submission of the same draft runs.
	ErrSubmitInFlight = errors.New("editor: submission already in progress")
	// ErrPreviewNotFound is returned by preview stores for unknown handles.
	ErrPreviewNotFound = errors.New("editor: preview not found")
)

// User facing messages.
const (
	msgInvalidProductID   = "Invalid product ID"
	msgFetchProductFailed = "Failed to fetch product data"
	msgFetchCategories    = "Failed to fetch categories."
	msgCategoriesBanner   = "Failed to fetch categories. Please try again later."
	msgImageRequired      = "Please upload at least one product image."
	msgImageDeleted       = "Image deleted successfully"
	msgImageDeleteFailed  = "Failed to delete image"
	msgImageStageFailed   = "Failed to add image"
	msgUpdated            = "Product updated successfully"
	msgUpdateFailed       = "Failed to update product. Please try again."
	msgSubmitInFlight     = "An update for this product is already in progress."
)
