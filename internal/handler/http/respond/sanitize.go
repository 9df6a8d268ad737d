package respond

import (
	"regexp"
)

// Order matters: bearer tokens first, then the more specific key prefixes.
var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	resendKeyPattern    = regexp.MustCompile(`\bre_[a-zA-Z0-9_]{8,}`)

	// NewsAPI takes its key as a query parameter and echoes the URL in transport errors.
	queryKeyPattern = regexp.MustCompile(`(?i)([?&](?:apikey|api_key|token)=)[^&\s"]+`)

	bearerPattern     = regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9._~+/=-]+`)
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeMessage(err.Error())
}

// SanitizeMessage masks API keys, bearer tokens and DSN passwords in msg.
func SanitizeMessage(msg string) string {
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = resendKeyPattern.ReplaceAllString(msg, "re_****")
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
