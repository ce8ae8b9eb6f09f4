package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/medtravel/offer-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeRequestRepo struct {
	requests   map[string]*models.Request
	failCreate bool
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*models.Request{}}
}

func (f *fakeRequestRepo) CreateRequest(_ context.Context, matchReq models.MatchRequest) (*models.Request, error) {
	if f.failCreate {
		return nil, errors.New("duplicate key value violates unique constraint")
	}
	request := &models.Request{
		ID:                uuid.New().String(),
		Username:          matchReq.Username,
		ProcedureName:     matchReq.ProcedureName,
		ProcedureCategory: matchReq.ProcedureCategory,
		Region:            matchReq.Region,
		Sessions:          matchReq.Sessions,
		SelectedCountries: matchReq.SelectedCountries,
		CitiesByCountry:   matchReq.CitiesByCountry,
		Gender:            matchReq.Gender,
		Notes:             matchReq.Notes,
		Status:            models.OpenRequest,
		CreatedAt:         time.Now().UTC(),
	}
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeRequestRepo) GetRequestByID(_ context.Context, requestID string) (*models.Request, error) {
	request, ok := f.requests[requestID]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return request, nil
}

func (f *fakeRequestRepo) GetUserRequests(_ context.Context, limit, offset int, username string) ([]models.Request, error) {
	var requests []models.Request
	for _, request := range f.requests {
		if request.Username == username {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

type fakeRuleRepo struct {
	rules []models.PriceRule
	err   error
	calls int
}

func (f *fakeRuleRepo) GetActiveRules(_ context.Context, procedureName string, countries []string) ([]models.PriceRule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	selected := map[string]bool{}
	for _, c := range countries {
		selected[c] = true
	}
	var scoped []models.PriceRule
	for _, rule := range f.rules {
		if rule.Active && rule.ProcedureName == procedureName && selected[rule.Country] {
			scoped = append(scoped, rule)
		}
	}
	return scoped, nil
}

type fakeOfferRepo struct {
	offers     map[string]models.Offer
	failUpsert bool
	failRead   bool
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: map[string]models.Offer{}}
}

func offerIdentity(o models.Offer) string {
	return strings.Join([]string{o.RequestID, o.SupplierUsername, o.Country, o.City, string(o.Source)}, "|")
}

func (f *fakeOfferRepo) UpsertOffers(_ context.Context, offers []models.Offer) error {
	if f.failUpsert {
		return errors.New("connection refused")
	}
	for _, offer := range offers {
		key := offerIdentity(offer)
		if existing, ok := f.offers[key]; ok {
			offer.ID = existing.ID
			offer.CreatedAt = existing.CreatedAt
		} else {
			offer.ID = uuid.New().String()
			offer.CreatedAt = time.Now().UTC()
		}
		f.offers[key] = offer
	}
	return nil
}

func (f *fakeOfferRepo) GetRequestOffers(_ context.Context, requestID string) ([]models.Offer, error) {
	if f.failRead {
		return nil, errors.New("connection refused")
	}
	var offers []models.Offer
	for _, offer := range f.offers {
		if offer.RequestID == requestID {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

func (f *fakeOfferRepo) CreateManualOffer(_ context.Context, offerReq models.ManualOfferRequest) (*models.Offer, error) {
	city := offerReq.City
	if city == "" {
		city = models.CityUnspecified
	}
	offer := models.Offer{
		ID:               uuid.New().String(),
		RequestID:        offerReq.RequestID,
		SupplierUsername: offerReq.Username,
		Source:           models.ManualOffer,
		Country:          offerReq.Country,
		City:             city,
		Currency:         offerReq.Currency,
		PriceMin:         offerReq.PriceMin,
		PriceMax:         offerReq.PriceMax,
		Status:           models.SentOffer,
		Note:             offerReq.Note,
		CreatedAt:        time.Now().UTC(),
	}
	// Resubmission merges into the stored row, keeping its id and
	// created_at, same as the ON CONFLICT clause in the real repository.
	key := offerIdentity(offer)
	if existing, ok := f.offers[key]; ok {
		offer.ID = existing.ID
		offer.CreatedAt = existing.CreatedAt
	}
	f.offers[key] = offer
	return &offer, nil
}

type fakeAccountRepo struct {
	users map[string]bool
}

func (f *fakeAccountRepo) Exists(_ context.Context, username string) (bool, error) {
	return f.users[username], nil
}

type fakeRuleCache struct {
	entries map[string][]models.PriceRule
	getErr  error
	hits    int
	sets    int
}

func newFakeRuleCache() *fakeRuleCache {
	return &fakeRuleCache{entries: map[string][]models.PriceRule{}}
}

func (f *fakeRuleCache) Get(_ context.Context, key string) ([]models.PriceRule, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rules, ok := f.entries[key]
	if !ok {
		return nil, nil
	}
	f.hits++
	return rules, nil
}

func (f *fakeRuleCache) Set(_ context.Context, key string, rules []models.PriceRule) error {
	f.sets++
	f.entries[key] = rules
	return nil
}

type serviceFixture struct {
	service  *RequestService
	requests *fakeRequestRepo
	rules    *fakeRuleRepo
	offers   *fakeOfferRepo
}

func newServiceFixture(rules []models.PriceRule) *serviceFixture {
	requestRepo := newFakeRequestRepo()
	ruleRepo := &fakeRuleRepo{rules: rules}
	offerRepo := newFakeOfferRepo()
	accountRepo := &fakeAccountRepo{users: map[string]bool{"buyer": true, "clinic-istanbul": true}}
	service := NewRequestService(requestRepo, ruleRepo, offerRepo, accountRepo, nil, zap.NewNop())
	return &serviceFixture{service: service, requests: requestRepo, rules: ruleRepo, offers: offerRepo}
}

func hairTransplantRule() models.PriceRule {
	return models.PriceRule{
		ID:               "rule-001",
		SupplierUsername: "clinic-istanbul",
		ProcedureName:    "Hair Transplant",
		Active:           true,
		Country:          "TR",
		Currency:         "USD",
		PriceMin:         1500,
		PriceMax:         3000,
	}
}

func hairTransplantPayload() models.MatchRequest {
	return models.MatchRequest{
		Username:          "buyer",
		ProcedureName:     "Hair Transplant",
		SelectedCountries: []string{"TR"},
		CitiesByCountry:   map[string][]string{"TR": {"Istanbul"}},
	}
}

func TestSubmitRequest_EndToEnd(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}
	if result.OffersError != "" {
		t.Fatalf("OffersError = %q, want empty", result.OffersError)
	}
	if result.Request == nil || result.Request.Status != models.OpenRequest {
		t.Fatalf("Request = %+v, want open request", result.Request)
	}
	if len(result.Offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(result.Offers))
	}

	offer := result.Offers[0]
	if offer.Country != "TR" || offer.City != "Istanbul" {
		t.Errorf("offer location = %s/%s, want TR/Istanbul", offer.Country, offer.City)
	}
	if offer.Currency != "USD" || offer.PriceMin != 1500 || offer.PriceMax != 3000 {
		t.Errorf("offer price = %s %d-%d, want USD 1500-3000", offer.Currency, offer.PriceMin, offer.PriceMax)
	}
	if offer.Status != models.SentOffer {
		t.Errorf("offer status = %q, want %q", offer.Status, models.SentOffer)
	}
}

func TestSubmitRequest_InvalidPayload(t *testing.T) {
	fixture := newServiceFixture(nil)

	payload := hairTransplantPayload()
	payload.SelectedCountries = []string{}

	_, err := fixture.service.SubmitRequest(context.Background(), payload)
	errorResponse, ok := err.(*models.ErrorResponse)
	if !ok {
		t.Fatalf("error = %v, want *models.ErrorResponse", err)
	}
	if errorResponse.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", errorResponse.StatusCode, http.StatusBadRequest)
	}
	if errorResponse.Hint == "" {
		t.Error("Hint empty, want guidance on the required fields")
	}
	if len(fixture.requests.requests) != 0 {
		t.Errorf("requests persisted = %d, want 0", len(fixture.requests.requests))
	}
}

func TestSubmitRequest_UnknownUser(t *testing.T) {
	fixture := newServiceFixture(nil)

	payload := hairTransplantPayload()
	payload.Username = "stranger"

	_, err := fixture.service.SubmitRequest(context.Background(), payload)
	errorResponse, ok := err.(*models.ErrorResponse)
	if !ok {
		t.Fatalf("error = %v, want *models.ErrorResponse", err)
	}
	if errorResponse.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", errorResponse.StatusCode, http.StatusUnauthorized)
	}
}

func TestSubmitRequest_RequestPersistFailure(t *testing.T) {
	fixture := newServiceFixture(nil)
	fixture.requests.failCreate = true

	_, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	errorResponse, ok := err.(*models.ErrorResponse)
	if !ok {
		t.Fatalf("error = %v, want *models.ErrorResponse", err)
	}
	if errorResponse.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", errorResponse.StatusCode, http.StatusBadRequest)
	}
	if errorResponse.Details == "" {
		t.Errorf("Details empty, want store error detail")
	}
	if fixture.rules.calls != 0 {
		t.Errorf("rule fetches = %d, want 0 after a request-persist failure", fixture.rules.calls)
	}
}

func TestSubmitRequest_OfferPersistFailureIsSoft(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})
	fixture.offers.failUpsert = true

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil (soft failure)", err)
	}
	if result.Request == nil {
		t.Fatal("Request = nil, want the persisted request")
	}
	if len(result.Offers) != 0 {
		t.Errorf("offers = %d, want 0", len(result.Offers))
	}
	if result.OffersError == "" {
		t.Error("OffersError empty, want a diagnostic message")
	}
	if len(fixture.requests.requests) != 1 {
		t.Errorf("requests persisted = %d, want 1 (never rolled back)", len(fixture.requests.requests))
	}
}

func TestSubmitRequest_RuleFetchFailureIsSoft(t *testing.T) {
	fixture := newServiceFixture(nil)
	fixture.rules.err = errors.New("connection refused")

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil (soft failure)", err)
	}
	if result.OffersError == "" {
		t.Error("OffersError empty, want a diagnostic message")
	}
}

func TestSubmitRequest_NoMatchingRules(t *testing.T) {
	rule := hairTransplantRule()
	rule.Country = "DE"
	fixture := newServiceFixture([]models.PriceRule{rule})

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}
	if result.OffersError != "" {
		t.Errorf("OffersError = %q, want empty (zero matches is not an error)", result.OffersError)
	}
	if len(result.Offers) != 0 {
		t.Errorf("offers = %d, want 0", len(result.Offers))
	}
}

func TestRegenerateOffers_Idempotent(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})

	first, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}
	if len(first.Offers) != 1 {
		t.Fatalf("offers after submit = %d, want 1", len(first.Offers))
	}

	for i := 0; i < 3; i++ {
		result, err := fixture.service.RegenerateOffers(context.Background(), first.Request.ID, "buyer")
		if err != nil {
			t.Fatalf("RegenerateOffers() error = %v, want nil", err)
		}
		if len(result.Offers) != 1 {
			t.Fatalf("offers after regeneration %d = %d, want 1", i+1, len(result.Offers))
		}
	}
	if len(fixture.offers.offers) != 1 {
		t.Errorf("persisted rows = %d, want 1 per identity tuple", len(fixture.offers.offers))
	}
}

func TestGetRequestOffers_IncludesManualOffers(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}

	note := "personal consultation included"
	_, err = fixture.offers.CreateManualOffer(context.Background(), models.ManualOfferRequest{
		Username:  "clinic-istanbul",
		RequestID: result.Request.ID,
		Country:   "TR",
		City:      "Istanbul",
		Currency:  "USD",
		PriceMin:  1400,
		PriceMax:  2800,
		Note:      &note,
	})
	if err != nil {
		t.Fatalf("CreateManualOffer() error = %v, want nil", err)
	}

	offers, err := fixture.service.GetRequestOffers(context.Background(), result.Request.ID, "buyer")
	if err != nil {
		t.Fatalf("GetRequestOffers() error = %v, want nil", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2 (auto + manual)", len(offers))
	}

	sources := map[models.OfferSource]int{}
	for _, offer := range offers {
		sources[offer.Source]++
	}
	if sources[models.AutoOffer] != 1 || sources[models.ManualOffer] != 1 {
		t.Errorf("sources = %v, want one auto and one manual", sources)
	}
}

func TestSubmitManualOffer_ResubmissionUpdatesNote(t *testing.T) {
	fixture := newServiceFixture(nil)
	accounts := &fakeAccountRepo{users: map[string]bool{"buyer": true, "clinic-istanbul": true}}
	offerService := NewOfferService(fixture.requests, fixture.offers, accounts, zap.NewNop())

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}

	firstNote := "initial quote"
	payload := models.ManualOfferRequest{
		Username:  "clinic-istanbul",
		RequestID: result.Request.ID,
		Country:   "TR",
		City:      "Istanbul",
		Currency:  "USD",
		PriceMin:  1500,
		PriceMax:  3000,
		Note:      &firstNote,
	}
	first, err := offerService.SubmitManualOffer(context.Background(), payload)
	if err != nil {
		t.Fatalf("SubmitManualOffer() error = %v, want nil", err)
	}

	secondNote := "revised quote after consultation"
	payload.PriceMin = 1400
	payload.PriceMax = 2800
	payload.Note = &secondNote
	second, err := offerService.SubmitManualOffer(context.Background(), payload)
	if err != nil {
		t.Fatalf("SubmitManualOffer() resubmission error = %v, want nil", err)
	}

	if len(fixture.offers.offers) != 1 {
		t.Fatalf("persisted rows = %d, want 1 (resubmission merges)", len(fixture.offers.offers))
	}
	if second.ID != first.ID {
		t.Errorf("resubmitted offer ID = %s, want the stored row's ID %s", second.ID, first.ID)
	}

	stored := fixture.offers.offers[offerIdentity(*second)]
	if stored.Note == nil || *stored.Note != secondNote {
		t.Errorf("stored note = %v, want %q", stored.Note, secondNote)
	}
	if stored.PriceMin != 1400 || stored.PriceMax != 2800 {
		t.Errorf("stored price = %d-%d, want 1400-2800", stored.PriceMin, stored.PriceMax)
	}
}

func TestGetRequestOffers_OtherUserForbidden(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}

	_, err = fixture.service.GetRequestOffers(context.Background(), result.Request.ID, "clinic-istanbul")
	errorResponse, ok := err.(*models.ErrorResponse)
	if !ok {
		t.Fatalf("error = %v, want *models.ErrorResponse", err)
	}
	if errorResponse.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want %d", errorResponse.StatusCode, http.StatusForbidden)
	}
}

func TestFetchActiveRules_CacheReadThrough(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})
	cache := newFakeRuleCache()
	fixture.service.Cache = cache

	for i := 0; i < 2; i++ {
		if _, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload()); err != nil {
			t.Fatalf("SubmitRequest() run %d error = %v, want nil", i+1, err)
		}
	}

	if fixture.rules.calls != 1 {
		t.Errorf("repository rule fetches = %d, want 1 (second run served from cache)", fixture.rules.calls)
	}
	if cache.hits != 1 || cache.sets != 1 {
		t.Errorf("cache hits/sets = %d/%d, want 1/1", cache.hits, cache.sets)
	}
}

func TestFetchActiveRules_CacheErrorIgnored(t *testing.T) {
	fixture := newServiceFixture([]models.PriceRule{hairTransplantRule()})
	cache := newFakeRuleCache()
	cache.getErr = fmt.Errorf("redis: connection refused")
	fixture.service.Cache = cache

	result, err := fixture.service.SubmitRequest(context.Background(), hairTransplantPayload())
	if err != nil {
		t.Fatalf("SubmitRequest() error = %v, want nil", err)
	}
	if result.OffersError != "" {
		t.Errorf("OffersError = %q, want empty (cache is advisory)", result.OffersError)
	}
	if len(result.Offers) != 1 {
		t.Errorf("offers = %d, want 1", len(result.Offers))
	}
}
