/*
handlers.go - HTTP API handlers for the farm planning service

PURPOSE:
  Exposes the planning engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Farms (producer):
    GET    /api/farm/fazendas             List the caller's farms
    POST   /api/farm/fazendas             Create farm (owner = caller)
    GET    /api/farm/fazendas/{id}        Get farm
    PUT    /api/farm/fazendas/{id}        Replace farm
    PATCH  /api/farm/fazendas/{id}        Partial update
    DELETE /api/farm/fazendas/{id}        Delete farm with its cycles

  Crop cycles (producer):
    GET    /api/farm/cultivos             List cycles on the caller's farms
    POST   /api/farm/cultivos             Create (area budget checked)
    GET    /api/farm/cultivos/{id}        Get cycle
    PUT    /api/farm/cultivos/{id}        Replace (area budget checked)
    PATCH  /api/farm/cultivos/{id}        Partial update (area budget checked)
    DELETE /api/farm/cultivos/{id}        Delete cycle with its movements

  Catalog (any authenticated user):
    GET    /api/farm/cultivares?cultura=  List entries
    POST   /api/farm/cultivares           Add entry

  Dashboard and stock (producer):
    GET    /api/farm/dashboard            Summary counts and charts
    GET    /api/estoque                   Balance and movements
    POST   /api/estoque/entrada           Record a movement
    GET    /api/estoque/export            Movements as an xlsx workbook

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate shape (validator tags)
  3. Call domain logic (CycleService, Ledger, dashboard)
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as {"detail": message}:
  - 400: Validation errors, invalid input, budget violations
  - 401: Missing or invalid token
  - 403: Not a producer
  - 404: Missing resource, or one owned by another producer
  - 500: Internal errors (logged, message hidden)

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token handling
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/logger"
	"github.com/warp/agro-engine/stock"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers persist through. Both the SQLite store
// and the in-memory store satisfy it.
type Store interface {
	agro.FarmStore
	agro.CycleStore
	agro.CatalogStore
	agro.MovementStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Cycles *agro.CycleService
	Ledger *stock.Ledger
	Log    *logger.Logger

	// Now is the clock for the dashboard as-of date and the harvest check.
	Now func() time.Time

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		Store:    store,
		Cycles:   agro.NewCycleService(store, store),
		Ledger:   stock.NewLedger(store, log),
		Log:      log,
		Now:      time.Now,
		validate: newValidator(),
	}
	h.Ledger.Now = func() time.Time { return h.Now() }
	return h
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// producer returns the authenticated caller's producer ID.
func producer(r *http.Request) agro.ProducerID {
	p, _ := PrincipalFrom(r.Context())
	return p.ProducerID
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", chi.URLParam(r, "id"), agro.ErrNotFound)
	}
	return id, nil
}

// decodeJSON reads the body into v. For PATCH, v already holds the current
// state and the body only overwrites the fields it names.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return agro.NewValidationError("", agro.CodeRequired, "invalid JSON body: "+err.Error())
	}
	return nil
}

// check runs the struct tag validation and converts failures to a
// ValidationError naming the first offending field.
func (h *Handler) check(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		code := agro.CodeOutOfRange
		if fe.Tag() == "required" {
			code = agro.CodeRequired
		}
		return agro.NewValidationError(fe.Field(), code, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("failed to validate request: %w", err)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

// handleError maps domain errors to status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case agro.IsClientError(err):
		writeError(w, http.StatusBadRequest, agro.Message(err))
	case agro.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case agro.IsPermission(err):
		writeError(w, http.StatusForbidden, agro.ErrPermission.Error())
	default:
		h.Log.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "producer_id", producer(r), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
