package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/application/services"
)

// PortfolioHandler handles HTTP requests for portfolio aggregation
type PortfolioHandler struct {
	service *services.AggregatorService
	logger  *zap.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(service *services.AggregatorService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the portfolio routes on a chi router
func (h *PortfolioHandler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolios/summary", h.GetSummary)
	r.Get("/users/{userID}/portfolio", h.GetUserPortfolio)
}

type summaryRequestBody struct {
	RequesterID      string          `json:"requester_id"`
	RequesterWallets []string        `json:"requester_wallets"`
	UserIDs          []string        `json:"user_ids"`
	Networks         []string        `json:"networks"`
	NativeUSDRate    decimal.Decimal `json:"native_usd_rate"`
}

// GetSummary handles POST /api/v1/portfolios/summary
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body summaryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.RequesterID == "" {
		h.respondError(w, http.StatusBadRequest, "requester_id is required")
		return
	}
	if len(body.UserIDs) == 0 {
		h.respondError(w, http.StatusBadRequest, "user_ids is required")
		return
	}

	response, err := h.service.GetPortfolioSummary(ctx, services.SummaryRequest{
		Authorization:    r.Header.Get("Authorization"),
		RequesterID:      body.RequesterID,
		RequesterWallets: body.RequesterWallets,
		UserIDs:          body.UserIDs,
		Networks:         body.Networks,
		NativeUSDRate:    body.NativeUSDRate,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetUserPortfolio handles GET /api/v1/users/{userID}/portfolio, the
// self-portfolio convenience route. The token gate is skipped because the
// requester is the requested user.
func (h *PortfolioHandler) GetUserPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	wallets := splitParam(r.URL.Query().Get("wallets"))
	if len(wallets) == 0 {
		h.respondError(w, http.StatusBadRequest, "wallets query parameter is required")
		return
	}

	rate := decimal.Zero
	if raw := r.URL.Query().Get("rate"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid rate")
			return
		}
		rate = parsed
	}

	response, err := h.service.GetPortfolioSummary(ctx, services.SummaryRequest{
		Authorization:    r.Header.Get("Authorization"),
		RequesterID:      userID,
		RequesterWallets: wallets,
		UserIDs:          []string{userID},
		Networks:         splitParam(r.URL.Query().Get("networks")),
		NativeUSDRate:    rate,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Internal detail is logged, never leaked to the caller.
func (h *PortfolioHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTooManyUsers):
		h.respondError(w, http.StatusBadRequest, "Cannot process more than 3 users at a time, please request fewer users")
	case errors.Is(err, services.ErrNoUsers):
		h.respondError(w, http.StatusBadRequest, "No users requested")
	case errors.Is(err, services.ErrNoWallets):
		h.respondError(w, http.StatusBadRequest, "No wallet addresses linked to this account")
	case errors.Is(err, services.ErrEmptyPortfolio):
		h.respondError(w, http.StatusNotFound, "No holdings found for the requested users")
	default:
		h.logger.Error("Failed to aggregate portfolio",
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
		h.respondError(w, http.StatusBadGateway, "Failed to fetch portfolio data, please try again later")
	}
}

func (h *PortfolioHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *PortfolioHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
