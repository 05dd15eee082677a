package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
	"github.com/odyssey-erp/storefront-admin/internal/editor/store"
	"github.com/odyssey-erp/storefront-admin/internal/shared"
	"github.com/odyssey-erp/storefront-admin/internal/view"
)

const maxMultipartMemory = 8 << 20

var errMissingSession = errors.New("session missing")

// Config groups the collaborators of the product screen handler.
type Config struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Catalog   editor.Catalog
	Images    editor.ImageStorage
	States    *store.StateStore
	Previews  *store.PreviewStore
	Locks     *store.SubmitLocks
	Recorder  editor.Recorder
}

// Handler wires HTTP endpoints for the product edit screen.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	catalog   editor.Catalog
	images    editor.ImageStorage
	states    *store.StateStore
	previews  *store.PreviewStore
	locks     *store.SubmitLocks
	recorder  editor.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		catalog:   cfg.Catalog,
		images:    cfg.Images,
		states:    cfg.States,
		previews:  cfg.Previews,
		locks:     cfg.Locks,
		recorder:  cfg.Recorder,
		validator: validator.New(),
	}
}

// MountRoutes registers product routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(editor.ProductListPath, h.showList)
	r.Route("/products/{id}/edit", func(r chi.Router) {
		r.Get("/", h.showEdit)
		r.Post("/", h.submitEdit)
		r.Post("/field", h.changeField)
		r.Post("/images", h.addImages)
		r.Post("/images/existing/remove", h.removeExisting)
		r.Post("/images/selected/{handle}/remove", h.removeSelected)
		r.Get("/previews/{handle}", h.servePreview)
		r.Post("/discard", h.discard)
	})
}

// screenRequest is one request's view of a product screen.
type screenRequest struct {
	productID string
	sess      *shared.Session
	screen    *editor.Screen
	nav       *redirectNavigator
	stored    bool
}

func (h *Handler) openScreen(r *http.Request) (*screenRequest, error) {
	ctx := r.Context()
	sess := shared.SessionFromRequest(r)
	if sess == nil {
		return nil, errMissingSession
	}
	productID := strings.TrimSpace(chi.URLParam(r, "id"))

	var st *editor.State
	if productID != "" {
		loaded, err := h.states.Load(ctx, sess.ID, productID)
		if err != nil {
			return nil, err
		}
		st = loaded
	}

	nav := &redirectNavigator{}
	screen := editor.NewScreen(editor.Deps{
		Catalog:   h.catalog,
		Images:    h.images,
		Previews:  h.previews.ForSession(sess.ID),
		Notifier:  sessionNotifier{sess: sess},
		Navigator: nav,
		Locker:    h.locks.For(sess.ID, productID),
		Recorder:  h.recorder,
		Logger:    h.logger,
	}, st)
	return &screenRequest{
		productID: productID,
		sess:      sess,
		screen:    screen,
		nav:       nav,
		stored:    st != nil,
	}, nil
}

// ready reports whether a mutation can be applied to the stored screen.
func (sr *screenRequest) ready() bool {
	return sr.stored && sr.screen.State().Ready() && !sr.screen.State().Done
}

func (h *Handler) persist(ctx context.Context, sr *screenRequest) {
	st := sr.screen.State()
	if st.ProductID == "" {
		return
	}
	var err error
	if st.Done {
		err = h.states.Delete(ctx, sr.sess.ID, st.ProductID)
	} else {
		err = h.states.Save(ctx, sr.sess.ID, st)
	}
	if err != nil {
		h.logger.Error("persist editor state", slog.String("product_id", st.ProductID), slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *shared.Session, status int, name, title string, data any) {
	csrfToken, err := h.csrf.EnsureToken(sess)
	if err != nil {
		h.fail(w, "issue csrf token", err)
		return
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flashes:     sess.PopFlashes(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, status, name, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

func (h *Handler) redirectToEditor(w http.ResponseWriter, r *http.Request, sr *screenRequest, fragment string) {
	target := editPath(sr.productID)
	if fragment != "" {
		target += "#" + fragment
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromRequest(r)
	if sess == nil {
		h.fail(w, "render product list", errMissingSession)
		return
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		http.Redirect(w, r, editPath(id), http.StatusSeeOther)
		return
	}
	h.render(w, r, sess, http.StatusOK, "pages/products/list.html", "Products", listPage{})
}

func editPath(productID string) string {
	return "/products/" + url.PathEscape(productID) + "/edit"
}
