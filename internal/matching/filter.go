package matching

import "github.com/medtravel/offer-service/internal/models"

// FilterRules returns the rules eligible for the request, preserving the
// relative order of the candidates. The repository already scopes candidates
// to active rules for the request's procedure and countries; inactive or
// procedure-mismatched rules that slip through are treated as non-matches
// rather than errors. Country and city gating happens during expansion.
func FilterRules(req *models.Request, rules []models.PriceRule) []models.PriceRule {
	eligible := make([]models.PriceRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if rule.ProcedureName != req.ProcedureName {
			continue
		}
		if !regionMatches(rule.Region, req.Region) {
			continue
		}
		if !sessionsMatch(rule.Sessions, req.Sessions) {
			continue
		}
		eligible = append(eligible, rule)
	}
	return eligible
}
