package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spf13/cast"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
	"github.com/odyssey-erp/storefront-admin/internal/platform/httpx"
)

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	ctx := r.Context()

	// Loader failures surface as notifications and screen state.
	if sr.ready() {
		_ = sr.screen.Load(ctx)
	} else {
		_ = sr.screen.Mount(ctx, sr.productID)
	}
	h.persist(ctx, sr)

	st := sr.screen.State()
	if !st.Ready() {
		status := http.StatusOK
		if st.LoadFailed {
			status = http.StatusBadGateway
		}
		h.render(w, r, sr.sess, status, "pages/products/loading.html", "Edit Product", newStatusPage(st))
		return
	}
	h.render(w, r, sr.sess, http.StatusOK, "pages/products/edit.html", "Edit Product", newEditPage(st))
}

func (h *Handler) submitEdit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
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
	ctx := r.Context()

	applyForm(sr.screen, r.PostForm)
	if r.MultipartForm != nil && len(r.MultipartForm.File["image"]) > 0 {
		uploads, err := readUploads(r.MultipartForm.File["image"])
		if err != nil {
			h.fail(w, "read uploads", err)
			return
		}
		rejected, _ := sr.screen.AddFiles(ctx, uploads)
		flashRejections(sr.sess, rejected)
	}

	err = sr.screen.Submit(ctx)
	h.persist(ctx, sr)
	if err == nil && sr.nav.path != "" {
		http.Redirect(w, r, sr.nav.path, http.StatusSeeOther)
		return
	}
	fragment := ""
	if errors.Is(err, editor.ErrNoImages) {
		fragment = "images"
	}
	h.redirectToEditor(w, r, sr, fragment)
}

type fieldChange struct {
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value"`
	Blur  bool   `json:"blur"`
}

type fieldResponse struct {
	Draft  editor.Draft       `json:"draft"`
	Errors editor.FieldErrors `json:"errors"`
	Price  string             `json:"price"`
}

func (h *Handler) changeField(w http.ResponseWriter, r *http.Request) {
	var change fieldChange
	if err := httpx.DecodeJSON(w, r, &change); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(change); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: field name required", httpx.ErrValidation))
		return
	}
	value, err := cast.ToStringE(change.Value)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
		return
	}

	sr, err := h.openScreen(r)
	if err != nil {
		h.logger.Error("open product screen", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !sr.ready() {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrConflict, editor.ErrNotLoaded))
		return
	}

	if err := sr.screen.SetField(change.Name, value); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", httpx.ErrValidation, err))
		return
	}
	if change.Blur {
		_ = sr.screen.Touch(change.Name)
	}
	h.persist(r.Context(), sr)

	st := sr.screen.State()
	httpx.JSON(w, http.StatusOK, fieldResponse{
		Draft:  st.Draft,
		Errors: st.VisibleErrors(),
		Price:  st.Draft.Price,
	})
}

func (h *Handler) discard(w http.ResponseWriter, r *http.Request) {
	sr, err := h.openScreen(r)
	if err != nil {
		h.fail(w, "open product screen", err)
		return
	}
	if sr.stored {
		ctx := r.Context()
		sr.screen.Teardown(ctx)
		if err := h.states.Delete(ctx, sr.sess.ID, sr.productID); err != nil {
			h.logger.Warn("discard editor state", slog.String("product_id", sr.productID), slog.Any("error", err))
		}
	}
	http.Redirect(w, r, editor.ProductListPath, http.StatusSeeOther)
}

// applyForm writes every posted field that differs from the draft. The sale
// toggle goes last since an unchecked box is absent from the form.
func applyForm(screen *editor.Screen, form url.Values) {
	draft := screen.State().Draft
	for _, field := range editor.TextFields {
		values, ok := form[field]
		if !ok || len(values) == 0 {
			continue
		}
		if current, _ := draft.Value(field); current == values[0] {
			continue
		}
		_ = screen.SetField(field, values[0])
	}
	_ = screen.SetField(editor.FieldIsOnSale, form.Get(editor.FieldIsOnSale))
}

func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return r.ParseForm()
		}
		return err
	}
	return nil
}
