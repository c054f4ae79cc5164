package utils

import "strings"

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// EmailLocalPart returns the part before '@', or the whole input when there is none.
func EmailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// HasEmailDomain reports whether email ends with domain (e.g. "@au.edu"), ignoring case.
func HasEmailDomain(email, domain string) bool {
	email = NormalizeEmail(email)
	domain = strings.ToLower(domain)
	return domain != "" && strings.HasSuffix(email, domain) && len(email) > len(domain)
}

// NormalizeUpper trims and upper-cases free-text codes such as priority or status.
func NormalizeUpper(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
