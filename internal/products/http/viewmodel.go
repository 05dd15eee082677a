package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
)

type categoryOption struct {
	ID       string
	Name     string
	Selected bool
}

type selectedFileView struct {
	Handle     string
	Name       string
	Size       string
	PreviewURL string
	RemoveURL  string
}

type editPage struct {
	ProductID      string
	Action         string
	FieldURL       string
	ImagesURL      string
	RemoveURL      string
	DiscardURL     string
	ListURL        string
	Draft          editor.Draft
	Errors         editor.FieldErrors
	Categories     []categoryOption
	CategoryError  string
	ExistingImages []string
	SelectedFiles  []selectedFileView
	ImageError     string
	Accept         string
	MaxImageSize   string
}

type statusPage struct {
	ProductID string
	Failed    bool
	RetryURL  string
	ListURL   string
}

type listPage struct{}

func newEditPage(st *editor.State) editPage {
	base := editPath(st.ProductID)
	page := editPage{
		ProductID:      st.ProductID,
		Action:         base,
		FieldURL:       base + "/field",
		ImagesURL:      base + "/images",
		RemoveURL:      base + "/images/existing/remove",
		DiscardURL:     base + "/discard",
		ListURL:        editor.ProductListPath,
		Draft:          st.Draft,
		Errors:         st.VisibleErrors(),
		CategoryError:  st.CategoryError,
		ExistingImages: st.ExistingImages,
		ImageError:     st.ImageError,
		Accept:         strings.Join(append(append([]string{}, editor.AcceptedImageTypes...), editor.AcceptedImageExtensions...), ","),
		MaxImageSize:   formatBytes(editor.MaxImageBytes),
	}
	for _, c := range st.Categories {
		page.Categories = append(page.Categories, categoryOption{
			ID:       c.ID,
			Name:     c.Name,
			Selected: c.ID == st.Draft.CategoryID,
		})
	}
	for _, f := range st.SelectedFiles {
		handle := url.PathEscape(f.Handle)
		page.SelectedFiles = append(page.SelectedFiles, selectedFileView{
			Handle:     f.Handle,
			Name:       f.Name,
			Size:       formatBytes(f.Size),
			PreviewURL: base + "/previews/" + handle,
			RemoveURL:  base + "/images/selected/" + handle + "/remove",
		})
	}
	return page
}

func newStatusPage(st *editor.State) statusPage {
	return statusPage{
		ProductID: st.ProductID,
		Failed:    st.LoadFailed,
		RetryURL:  editPath(st.ProductID),
		ListURL:   editor.ProductListPath,
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
