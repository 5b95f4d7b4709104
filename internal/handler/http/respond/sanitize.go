package respond

import (
	"regexp"
)

// Order matters: the Anthropic pattern must run before the generic sk- one.
var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-(?:proj-)?[a-zA-Z0-9_-]{10,}`)
	googleKeyPattern    = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)
	keyParamPattern     = regexp.MustCompile(`([?&]key=)[^&\s"]+`)
	bearerPattern       = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/-]+=*`)
)

// SanitizeError returns err's message with provider API keys masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks provider API keys and bearer tokens in s.
func SanitizeString(s string) string {
	s = anthropicKeyPattern.ReplaceAllString(s, "sk-ant-****")
	s = openaiKeyPattern.ReplaceAllString(s, "sk-****")
	s = googleKeyPattern.ReplaceAllString(s, "AIza****")
	s = keyParamPattern.ReplaceAllString(s, "${1}****")
	s = bearerPattern.ReplaceAllString(s, "${1}****")
	return s
}
