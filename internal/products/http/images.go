package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
	"github.com/odyssey-erp/storefront-admin/internal/shared"
)

func (h *Handler) addImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	if !sr.ready() {
		h.redirectToEditor(w, r, sr, "")
		return
	}

	uploads, err := readUploads(r.MultipartForm.File["image"])
	if err != nil {
		h.fail(w, "read uploads", err)
		return
	}
	rejected, err := sr.screen.AddFiles(r.Context(), uploads)
	if err != nil {
		h.logger.Error("add images", slog.String("product_id", sr.productID), slog.Any("error", err))
	}
	flashRejections(sr.sess, rejected)
	h.persist(r.Context(), sr)
	h.redirectToEditor(w, r, sr, "images")
}

func (h *Handler) removeExisting(w http.ResponseWriter, r *http.Request) {
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	if !sr.ready() {
		h.redirectToEditor(w, r, sr, "")
		return
	}
	ref := r.PostFormValue("ref")
	if err := sr.screen.RemoveExisting(r.Context(), ref); errors.Is(err, editor.ErrUnknownImage) {
		h.logger.Warn("remove unknown image", slog.String("product_id", sr.productID), slog.String("ref", ref))
	}
	h.persist(r.Context(), sr)
	h.redirectToEditor(w, r, sr, "images")
}

func (h *Handler) removeSelected(w http.ResponseWriter, r *http.Request) {
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	if !sr.ready() {
		h.redirectToEditor(w, r, sr, "")
		return
	}
	_ = sr.screen.RemoveSelected(r.Context(), chi.URLParam(r, "handle"))
	h.persist(r.Context(), sr)
	h.redirectToEditor(w, r, sr, "images")
}

// servePreview streams a staged file. Only handles selected on this screen
// are served.
func (h *Handler) servePreview(w http.ResponseWriter, r *http.Request) {
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	handle := chi.URLParam(r, "handle")
	if !sr.stored || !sr.screen.State().HasSelection(handle) {
		http.NotFound(w, r)
		return
	}
	preview, err := h.previews.ForSession(sr.sess.ID).Open(r.Context(), handle)
	if err != nil {
		if errors.Is(err, editor.ErrPreviewNotFound) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, "open preview", err)
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, preview.Reader())
}

// readUploads reads picked files. Content beyond the size ceiling is not
// buffered; the declared size still reports the original length.
func readUploads(headers []*multipart.FileHeader) ([]editor.Upload, error) {
	uploads := make([]editor.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, editor.MaxImageBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, editor.Upload{Name: fh.Filename, Size: fh.Size, Data: data})
	}
	return uploads, nil
}

func flashRejections(sess *shared.Session, rejected []editor.Rejection) {
	for _, rej := range rejected {
		sess.AddFlash(shared.FlashMessage{
			Kind:    shared.FlashError,
			Message: fmt.Sprintf("%s: %s", rej.Name, rej.Reason),
		})
	}
}
