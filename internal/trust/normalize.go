package trust

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
)

var companyFolder = cases.Fold()

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\t", "")

// Normalize returns the canonical form of an identifier so that the same
// entity written differently maps to one trust record.
func Normalize(entityType EntityType, raw string) string {
	s := strings.TrimSpace(raw)
	switch entityType {
	case EntityPhone:
		return phoneStripper.Replace(s)
	case EntityEmail:
		return strings.ToLower(s)
	case EntityDomain:
		return normalizeDomain(s)
	case EntityCompany:
		return strings.Join(strings.Fields(companyFolder.String(s)), " ")
	default:
		return strings.ToLower(s)
	}
}

func normalizeDomain(s string) string {
	s = strings.ToLower(s)
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}

// RegistrableDomain returns the eTLD+1 of domain ("mail.fnb.co.za" -> "fnb.co.za").
// It returns the input unchanged when no public suffix applies.
func RegistrableDomain(domain string) string {
	d := normalizeDomain(domain)
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(d); err == nil {
		return etld1
	}
	return d
}
