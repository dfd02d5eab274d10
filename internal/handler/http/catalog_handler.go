package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
	"github.com/cypherlabdev/offer-catalog-service/internal/service"
	"github.com/cypherlabdev/offer-catalog-service/pkg/catalog"
	"github.com/cypherlabdev/offer-catalog-service/pkg/markets"
)

const dateLayout = "2006-01-02"

// Catalog is the catalog surface the handler serves
type Catalog interface {
	VisibleOffers(ref time.Time) []models.Offer
	Status() catalog.Status
	Refresh(ctx context.Context) error
	Ready() bool
}

// Selector submits a selected offer
type Selector interface {
	Select(ctx context.Context, key models.OfferKey) (*models.BetReceipt, error)
}

// CatalogHandler handles HTTP requests from the offer browser
type CatalogHandler struct {
	catalog  Catalog
	selector Selector
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler. Day boundaries are computed in loc.
func NewCatalogHandler(catalog Catalog, selector Selector, loc *time.Location, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		selector: selector,
		location: loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided router
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/offers", h.handleGetOffers)
		r.Get("/catalog", h.handleGetCatalog)
		r.Post("/catalog/refresh", h.handleRefresh)
		r.Post("/selections", h.handleSelect)
	})
}

// handleGetOffers handles GET /api/v1/offers?date=YYYY-MM-DD
func (h *CatalogHandler) handleGetOffers(w http.ResponseWriter, r *http.Request) {
	ref := h.now().In(h.location)

	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, h.location)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	offers := h.catalog.VisibleOffers(ref)
	rows := make([]*OfferResponse, len(offers))
	for i := range offers {
		rows[i] = ToOfferResponse(&offers[i], h.location)
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"date":   ref.Format(dateLayout),
		"count":  len(rows),
		"offers": rows,
	})
}

// handleGetCatalog handles GET /api/v1/catalog
func (h *CatalogHandler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.catalog.Status())
}

// handleRefresh handles POST /api/v1/catalog/refresh
func (h *CatalogHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		kind := catalog.KindNetwork
		var ferr *catalog.FetchError
		if errors.As(err, &ferr) {
			kind = ferr.Kind
		}
		h.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
			"error":  err.Error(),
			"kind":   kind,
			"status": h.catalog.Status(),
		})
		return
	}

	h.jsonResponse(w, http.StatusOK, h.catalog.Status())
}

// SelectionRequest is the body of POST /api/v1/selections
type SelectionRequest struct {
	Key models.OfferKey `json:"key"`
}

// handleSelect handles POST /api/v1/selections
func (h *CatalogHandler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Key == "" {
		h.errorResponse(w, http.StatusBadRequest, "key is required")
		return
	}

	receipt, err := h.selector.Select(r.Context(), req.Key)
	if err != nil {
		var stale *service.StaleSelectionError
		var serr *service.SubmissionError
		switch {
		case errors.As(err, &stale):
			h.jsonResponse(w, http.StatusConflict, map[string]interface{}{
				"error": err.Error(),
				"key":   stale.Key,
			})
		case errors.As(err, &serr) && serr.Kind == service.SubmissionRejected:
			h.jsonResponse(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":       err.Error(),
				"attempt_id":  serr.AttemptID,
				"status_code": serr.StatusCode,
				"reason":      serr.Reason,
			})
		case errors.As(err, &serr):
			h.jsonResponse(w, http.StatusBadGateway, map[string]interface{}{
				"error":      err.Error(),
				"attempt_id": serr.AttemptID,
			})
		default:
			h.logger.Error().
				Err(err).
				Str("key", string(req.Key)).
				Msg("selection failed")
			h.errorResponse(w, http.StatusInternalServerError, "selection failed")
		}
		return
	}

	h.jsonResponse(w, http.StatusCreated, receipt)
}

// handleHealth handles GET /health
func (h *CatalogHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady handles GET /ready
func (h *CatalogHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		h.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "no snapshot"})
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// jsonResponse writes a JSON response
func (h *CatalogHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *CatalogHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

// OfferResponse is one display row of the offer browser
type OfferResponse struct {
	Key          models.OfferKey `json:"key"`
	Title        string          `json:"title"`
	MarketLabel  string          `json:"market_label"`
	OutcomeLine  string          `json:"outcome_line"`
	Price        float64         `json:"price"`
	OutlierScore string          `json:"outlier_score"`
	Offer        models.Offer    `json:"offer"`
}

// ToOfferResponse converts an Offer to its display row
func ToOfferResponse(o *models.Offer, loc *time.Location) *OfferResponse {
	return &OfferResponse{
		Key:          o.Key(),
		Title:        catalog.Title(o, loc),
		MarketLabel:  markets.Resolve(o.MarketKey),
		OutcomeLine:  catalog.OutcomeLine(o),
		Price:        o.Price,
		OutlierScore: catalog.FormatOutlierScore(o.OutlierScore),
		Offer:        *o,
	}
}
