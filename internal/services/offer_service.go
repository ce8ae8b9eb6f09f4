package services

import (
	"context"
	"net/http"

	"github.com/medtravel/offer-service/internal/models"
	"github.com/medtravel/offer-service/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OfferService handles supplier-submitted offers. Manual offers bypass the
// matching engine entirely; they only share the offer store.
type OfferService struct {
	Requests repository.RequestRepository
	Offers   repository.OfferRepository
	Accounts repository.AccountRepository
	logger   *zap.Logger
	validate *validator.Validate
}

// NewOfferService creates a new OfferService instance.
func NewOfferService(requests repository.RequestRepository, offers repository.OfferRepository, accounts repository.AccountRepository, logger *zap.Logger) *OfferService {
	return &OfferService{
		Requests: requests,
		Offers:   offers,
		Accounts: accounts,
		logger:   logger,
		validate: validator.New(),
	}
}

// SubmitManualOffer validates and persists a manual offer for an existing request.
func (s *OfferService) SubmitManualOffer(ctx context.Context, offerReq models.ManualOfferRequest) (*models.Offer, error) {
	if err := s.validate.Struct(offerReq); err != nil {
		errorResponse := models.NewErrorResponseDetails(http.StatusBadRequest, "invalid offer payload", err.Error())
		errorResponse.Hint = "username, request_id, country, currency and a valid price range are required"
		return nil, errorResponse
	}

	exists, err := s.Accounts.Exists(ctx, offerReq.Username)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "internal server error")
	}
	if !exists {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "user does not exist")
	}

	if _, err := s.Requests.GetRequestByID(ctx, offerReq.RequestID); err != nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
	}

	offer, err := s.Offers.CreateManualOffer(ctx, offerReq)
	if err != nil {
		return nil, models.NewErrorResponseDetails(http.StatusBadRequest, "failed to save offer", err.Error())
	}

	s.logger.Info("manual offer submitted",
		zap.String("request_id", offer.RequestID),
		zap.String("supplier", offer.SupplierUsername))
	return offer, nil
}
