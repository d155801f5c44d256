package allocations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kilianp07/maskalloc/app"
	"github.com/kilianp07/maskalloc/core/allocation"
	coremon "github.com/kilianp07/maskalloc/core/monitoring"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/infra/ingest"
	"github.com/kilianp07/maskalloc/infra/logger"
)

// Allocator is the part of app.Service used by the API.
type Allocator interface {
	Allocate(ctx context.Context, in app.Input) (*allocation.Result, error)
	Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error)
	Run(ctx context.Context, id string) (runlog.RunRecord, error)
}

// Options configures the router.
type Options struct {
	// Token, when non-empty, must be sent as "Authorization: Bearer <token>".
	Token string
	// MaxBodyBytes bounds POST bodies. Zero means unlimited.
	MaxBodyBytes int64
	// Metrics is mounted on /metrics when not nil.
	Metrics http.Handler
}

type handler struct {
	svc  Allocator
	opts Options
	log  logger.Logger
}

// NewRouter returns the HTTP API:
//
//	POST /api/allocations       run an allocation
//	GET  /api/allocations       list logged runs (facility, start, end)
//	GET  /api/allocations/{id}  one logged run
func NewRouter(svc Allocator, opts Options) http.Handler {
	h := &handler{svc: svc, opts: opts, log: logger.New("api")}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.recoverer)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Route("/api/allocations", func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	return r
}

func (h *handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+h.opts.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				coremon.Recover(rec)
				h.log.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, body, h.opts.MaxBodyBytes)
	}
	var in app.Input
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	res, err := h.svc.Allocate(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.svc.Runs(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []runlog.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseQuery(r *http.Request) (runlog.Query, error) {
	values := r.URL.Query()
	q := runlog.Query{PharmacyID: values.Get("facility")}
	if q.PharmacyID == "" {
		q.PharmacyID = values.Get("pharmacy_id")
	}
	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		s := values.Get(f.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %v", f.name, err)
		}
		*f.dst = t
	}
	return q, nil
}

// fail maps service errors to status codes.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, runlog.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, ingest.ErrInvalidInput),
		errors.Is(err, ingest.ErrDuplicateFacility),
		errors.Is(err, ingest.ErrDuplicateStreet),
		errors.Is(err, allocation.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		coremon.Capture("api", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
