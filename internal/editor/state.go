package editor

// SelectedFile is a locally picked file waiting for upload.
type SelectedFile struct {
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// State is the serialisable state of one edit screen.
type State struct {
	ProductID      string          `json:"productId"`
	Loading        bool            `json:"loading"`
	LoadFailed     bool            `json:"loadFailed"`
	Product        *Product        `json:"product,omitempty"`
	Categories     CategorySet     `json:"categories"`
	CategoryError  string          `json:"categoryError,omitempty"`
	Draft          Draft           `json:"draft"`
	Touched        map[string]bool `json:"touched"`
	Errors         FieldErrors     `json:"errors"`
	ExistingImages []string        `json:"existingImages"`
	SelectedFiles  []SelectedFile  `json:"selectedFiles"`
	ImageError     string          `json:"imageError,omitempty"`
	Done           bool            `json:"done"`
}

// NewState returns the initial state of a screen for a product.
func NewState(productID string) *State {
	return &State{
		ProductID: productID,
		Loading:   true,
		Touched:   map[string]bool{},
		Errors:    FieldErrors{},
	}
}

// Ready reports whether the form can be rendered.
func (s *State) Ready() bool {
	return s != nil && s.Product != nil && !s.Loading
}

// HasSelection reports whether a preview handle belongs to this screen.
func (s *State) HasSelection(handle string) bool {
	for _, f := range s.SelectedFiles {
		if f.Handle == handle {
			return true
		}
	}
	return false
}

// ImageCount is the number of images the product would have after submission.
func (s *State) ImageCount() int {
	return len(s.ExistingImages) + len(s.SelectedFiles)
}

// VisibleErrors returns the errors of touched fields only.
func (s *State) VisibleErrors() FieldErrors {
	out := FieldErrors{}
	for field, msg := range s.Errors {
		if s.Touched[field] {
			out[field] = msg
		}
	}
	return out
}

func (s *State) reset(p Product) {
	prod := p
	s.Product = &prod
	s.Draft = NewDraft(p)
	s.Touched = map[string]bool{}
	s.ExistingImages = append([]string(nil), p.Images...)
	s.Errors = Validate(s.Draft, s.Categories)
}
