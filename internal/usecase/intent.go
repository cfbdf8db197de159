package usecase

import "regexp"

// endCallPatterns match replies that both say goodbye and signal the intent
// to hang up. A match schedules termination after the reply is spoken.
var endCallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhang(ing)?\s+up\s+now\b`),
	regexp.MustCompile(`(?i)\bi('m| am| will|'ll)\s+(go(ing)?\s+to\s+)?(hang\s+up|end\s+(the|this)\s+call)\b`),
	regexp.MustCompile(`(?i)\b(good\s*bye|bye\s*bye)\b[^.!?]*\b(talk\s+(to\s+you\s+)?(later|soon)|see\s+you|take\s+care)\b`),
	regexp.MustCompile(`(?i)\b(talk\s+(to\s+you\s+)?(later|soon)|see\s+you|take\s+care)\b[^.!?]*\b(good\s*bye|bye\s*bye)\b`),
	regexp.MustCompile(`(?i)^\s*(good\s*bye|bye\s*bye)[\s,!.~]*$`),
}

// IntentToEndCall scans a sanitized reply for hang-up phrasing.
func IntentToEndCall(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range endCallPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
