package matching

import "strings"

// Normalize canonicalizes a free-text matching key so rule/request
// comparisons are case- and whitespace-insensitive. Used only for region
// and city values, never for identifiers or currency codes.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePtr(s *string) string {
	if s == nil {
		return ""
	}
	return Normalize(*s)
}

// regionMatches reports whether a rule's region constraint accepts the
// request's region. An absent or empty rule region matches anything. A
// constrained rule never matches a request that specifies no region.
func regionMatches(ruleRegion, reqRegion *string) bool {
	want := normalizePtr(ruleRegion)
	if want == "" {
		return true
	}
	got := normalizePtr(reqRegion)
	if got == "" {
		return false
	}
	return want == got
}

// sessionsMatch reports whether a rule's session-count constraint accepts
// the request's session count. A rule with no constraint matches anything;
// a rule requiring N sessions matches only a request that specifies N.
func sessionsMatch(ruleSessions, reqSessions *int) bool {
	if ruleSessions == nil {
		return true
	}
	if reqSessions == nil {
		return false
	}
	return *ruleSessions == *reqSessions
}

// CityAllowed reports whether a rule with the given allowed-city set serves
// the requested city. An empty set means any city qualifies.
func CityAllowed(allowed []string, city string) bool {
	if len(allowed) == 0 {
		return true
	}
	want := Normalize(city)
	for _, c := range allowed {
		if Normalize(c) == want {
			return true
		}
	}
	return false
}
