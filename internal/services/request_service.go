package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medtravel/offer-service/internal/matching"
	"github.com/medtravel/offer-service/internal/models"
	"github.com/medtravel/offer-service/internal/repository"
	"github.com/medtravel/offer-service/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RequestService orchestrates the request-to-offer workflow: validate,
// persist the request, fetch and filter rules, expand and upsert offers,
// read back the result.
type RequestService struct {
	Requests repository.RequestRepository
	Rules    repository.RuleRepository
	Offers   repository.OfferRepository
	Accounts repository.AccountRepository
	Cache    RuleCache // may be nil, caching is optional
	logger   *zap.Logger
	validate *validator.Validate
}

// NewRequestService creates a new RequestService instance.
func NewRequestService(requests repository.RequestRepository, rules repository.RuleRepository, offers repository.OfferRepository, accounts repository.AccountRepository, cache RuleCache, logger *zap.Logger) *RequestService {
	return &RequestService{
		Requests: requests,
		Rules:    rules,
		Offers:   offers,
		Accounts: accounts,
		Cache:    cache,
		logger:   logger,
		validate: validator.New(),
	}
}

// SubmitRequest runs the full workflow for an inbound payload. Once the
// request row is durably saved the workflow never rolls it back: any failure
// in the offer stage degrades to an empty offer list with a diagnostic in
// OffersError, still a success for the caller.
func (s *RequestService) SubmitRequest(ctx context.Context, matchReq models.MatchRequest) (*models.MatchResult, error) {
	if err := s.validate.Struct(matchReq); err != nil {
		errorResponse := models.NewErrorResponseDetails(http.StatusBadRequest, "invalid request payload", err.Error())
		errorResponse.Hint = "procedure_name, username and a non-empty selected_countries are required"
		return nil, errorResponse
	}

	exists, err := s.Accounts.Exists(ctx, matchReq.Username)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "internal server error")
	}
	if !exists {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "user does not exist")
	}

	request, err := s.Requests.CreateRequest(ctx, matchReq)
	if err != nil {
		return nil, models.NewErrorResponseDetails(http.StatusBadRequest, "failed to save request", err.Error())
	}

	result := &models.MatchResult{Request: request, Offers: []models.Offer{}}

	offers, err := s.generateOffers(ctx, request)
	if err != nil {
		s.logger.Warn("offer generation failed",
			zap.String("request_id", request.ID),
			zap.Error(err))
		result.OffersError = err.Error()
		return result, nil
	}

	result.Offers = offers
	s.logger.Info("request matched",
		zap.String("request_id", request.ID),
		zap.String("procedure", request.ProcedureName),
		zap.Int("offers", len(offers)))
	return result, nil
}

// RegenerateOffers re-runs offer generation for an existing request. The
// upsert identity makes this idempotent, so it doubles as the retry path
// after a soft failure in SubmitRequest.
func (s *RequestService) RegenerateOffers(ctx context.Context, requestID, username string) (*models.MatchResult, error) {
	request, err := s.authorizedRequest(ctx, requestID, username)
	if err != nil {
		return nil, err
	}

	result := &models.MatchResult{Request: request, Offers: []models.Offer{}}

	offers, err := s.generateOffers(ctx, request)
	if err != nil {
		s.logger.Warn("offer regeneration failed",
			zap.String("request_id", request.ID),
			zap.Error(err))
		result.OffersError = err.Error()
		return result, nil
	}

	result.Offers = offers
	return result, nil
}

// GetRequestOffers returns all persisted offers for a request owned by the user.
func (s *RequestService) GetRequestOffers(ctx context.Context, requestID, username string) ([]models.Offer, error) {
	request, err := s.authorizedRequest(ctx, requestID, username)
	if err != nil {
		return nil, err
	}

	offers, err := s.Offers.GetRequestOffers(ctx, request.ID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to fetch offers")
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return offers, nil
}

// GetUserRequests returns the requests created by a user.
func (s *RequestService) GetUserRequests(ctx context.Context, limitStr, offsetStr, username string) ([]models.Request, error) {
	if username == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required query parameter: username")
	}

	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	exists, err := s.Accounts.Exists(ctx, username)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "internal server error")
	}
	if !exists {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "user does not exist")
	}
	return s.Requests.GetUserRequests(ctx, limit, offset, username)
}

// generateOffers runs the back half of the workflow: rule fetch, filter,
// expansion, upsert, read-back. Filtering and expansion are pure and cannot
// fail; every returned error is a store or cache-layer problem the caller
// treats as non-fatal.
func (s *RequestService) generateOffers(ctx context.Context, request *models.Request) ([]models.Offer, error) {
	rules, err := s.fetchActiveRules(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price rules: %w", err)
	}

	eligible := matching.FilterRules(request, rules)
	candidates := matching.ExpandOffers(request, eligible)

	if err := s.Offers.UpsertOffers(ctx, candidates); err != nil {
		return nil, fmt.Errorf("failed to save offers: %w", err)
	}

	offers, err := s.Offers.GetRequestOffers(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back offers: %w", err)
	}
	if offers == nil {
		offers = []models.Offer{}
	}
	return offers, nil
}

// fetchActiveRules reads the candidate rule set through the cache when one
// is configured. Cache errors are logged and ignored.
func (s *RequestService) fetchActiveRules(ctx context.Context, request *models.Request) ([]models.PriceRule, error) {
	if s.Cache == nil {
		return s.Rules.GetActiveRules(ctx, request.ProcedureName, request.SelectedCountries)
	}

	key := RuleCacheKey(request.ProcedureName, request.SelectedCountries)
	cached, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("rule cache read failed", zap.String("key", key), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	rules, err := s.Rules.GetActiveRules(ctx, request.ProcedureName, request.SelectedCountries)
	if err != nil {
		return nil, err
	}

	if err := s.Cache.Set(ctx, key, rules); err != nil {
		s.logger.Debug("rule cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rules, nil
}

func (s *RequestService) authorizedRequest(ctx context.Context, requestID, username string) (*models.Request, error) {
	if requestID == "" || username == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required parameters: requestId or username")
	}

	exists, err := s.Accounts.Exists(ctx, username)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "internal server error")
	}
	if !exists {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, "user does not exist")
	}

	request, err := s.Requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
	}
	if request.Username != username {
		return nil, models.NewErrorResponse(http.StatusForbidden, "you do not have permission to view this request")
	}
	return request, nil
}
