package places

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bft-labs/stagehand/pkg/app"
	"github.com/bft-labs/stagehand/pkg/httpserver"
	"github.com/bft-labs/stagehand/pkg/log"
	"github.com/bft-labs/stagehand/pkg/persistence"
)

// Router returns the places API:
//
//	GET  /        list places
//	POST /        create or update a place
//	GET  /{name}  get one place
func Router(repo Repository, logger log.Logger) chi.Router {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	h := &handler{repo: repo, logger: logger.With(log.Component("places"))}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.save)
	r.Get("/{name}", h.get)
	return r
}

type handler struct {
	repo   Repository
	logger log.Logger
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.All(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) save(w http.ResponseWriter, r *http.Request) {
	var p Place
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.repo.Save(r.Context(), p)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Find(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, persistence.ErrEntityNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("places request failed", log.Err(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Module mounts the places API under /places on srv.
func Module(srv *httpserver.Server, repo Repository) app.Module {
	return app.ModuleFunc(func(b *app.Binder) error {
		srv.Mount("/places", Router(repo, b.Logger()))
		return nil
	})
}
