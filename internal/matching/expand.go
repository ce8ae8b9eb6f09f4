package matching

import "github.com/medtravel/offer-service/internal/models"

// ExpandOffers expands each eligible rule against the request's per-country
// city selections into candidate offers, not yet persisted. A rule whose
// country is not among the selected countries contributes nothing. When the
// request named no cities for the rule's country, exactly one country-wide
// candidate is emitted; otherwise one candidate per requested city the rule
// serves. Duplicate requested cities collapse later at the upsert, which is
// keyed by the offer identity tuple.
func ExpandOffers(req *models.Request, rules []models.PriceRule) []models.Offer {
	selected := make(map[string]bool, len(req.SelectedCountries))
	for _, country := range req.SelectedCountries {
		selected[country] = true
	}

	var offers []models.Offer
	for _, rule := range rules {
		if !selected[rule.Country] {
			continue
		}
		cities := req.CitiesByCountry[rule.Country]
		if len(cities) == 0 {
			offers = append(offers, offerFromRule(req, rule, models.CityUnspecified))
			continue
		}
		for _, city := range cities {
			if !CityAllowed(rule.Cities, city) {
				continue
			}
			offers = append(offers, offerFromRule(req, rule, city))
		}
	}
	return offers
}

// offerFromRule copies currency and price range verbatim from the rule.
func offerFromRule(req *models.Request, rule models.PriceRule, city string) models.Offer {
	return models.Offer{
		RequestID:        req.ID,
		SupplierUsername: rule.SupplierUsername,
		Source:           models.AutoOffer,
		Country:          rule.Country,
		City:             city,
		Currency:         rule.Currency,
		PriceMin:         rule.PriceMin,
		PriceMax:         rule.PriceMax,
		Status:           models.SentOffer,
	}
}
