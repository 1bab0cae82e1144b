package respond

import (
	"regexp"
)

var (
	// Userinfo embedded in URLs (proxy credentials in fetch errors).
	urlUserinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)

	// Bearer tokens leaked through wrapped transport errors.
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._\-]+`)
)

// SanitizeError masks credential-shaped fragments in an error message so
// it is safe to log. Fetch errors wrap full request URLs, which may carry
// proxy userinfo when the service runs behind an authenticating egress.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = urlUserinfoPattern.ReplaceAllString(msg, "://$1:****@")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	return msg
}
