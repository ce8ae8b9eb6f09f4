package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/medtravel/offer-service/internal/models"
	"github.com/medtravel/offer-service/internal/services"
	"github.com/medtravel/offer-service/internal/utils"

	"go.uber.org/zap"
)

// RequestHandler - structure for handling request HTTP endpoints.
type RequestHandler struct {
	Service *services.RequestService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewRequestHandler creates a new RequestHandler instance.
func NewRequestHandler(service *services.RequestService, logger *zap.Logger, timeout time.Duration) *RequestHandler {
	return &RequestHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitRequest handles the engine entry point: it accepts a buyer payload
// and responds with the saved request plus the generated offers.
func (h *RequestHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var matchReq models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&matchReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.SubmitRequest(ctx, matchReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Warn("request rejected", zap.Error(err))
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Error("failed to submit request", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}

// GetUserRequests handles listing the caller's own requests.
func (h *RequestHandler) GetUserRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	username := r.URL.Query().Get("username")

	requests, err := h.Service.GetUserRequests(ctx, limitStr, offsetStr, username)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Warn("request listing rejected", zap.Error(err))
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Error("failed to fetch requests", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to fetch requests")
		return
	}

	if requests == nil {
		requests = []models.Request{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(requests); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}

// GetRequestOffers handles the offer read-back for a request. Offers missed
// because of a soft failure during submission show up here once regenerated.
func (h *RequestHandler) GetRequestOffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestID := r.PathValue("requestId")
	username := r.URL.Query().Get("username")

	offers, err := h.Service.GetRequestOffers(ctx, requestID, username)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Warn("offer listing rejected", zap.Error(err))
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Error("failed to fetch offers", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to fetch offers")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(offers); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}

// RegenerateOffers handles re-running offer generation for a saved request.
func (h *RequestHandler) RegenerateOffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestID := r.PathValue("requestId")
	username := r.URL.Query().Get("username")

	result, err := h.Service.RegenerateOffers(ctx, requestID, username)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Warn("offer regeneration rejected", zap.Error(err))
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Error("failed to regenerate offers", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to regenerate offers")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}
