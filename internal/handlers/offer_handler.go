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

// OfferHandler - structure for handling offer HTTP endpoints.
type OfferHandler struct {
	Service *services.OfferService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewOfferHandler creates a new OfferHandler instance.
func NewOfferHandler(service *services.OfferService, logger *zap.Logger, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitManualOffer handles a supplier submitting an offer directly.
func (h *OfferHandler) SubmitManualOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var offerReq models.ManualOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&offerReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	offer, err := h.Service.SubmitManualOffer(ctx, offerReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Warn("manual offer rejected", zap.Error(err))
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Error("failed to submit offer", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to submit offer")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(offer); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}
