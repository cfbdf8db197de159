package usecase

import (
	"regexp"
	"strings"
)

var (
	wholeLabelRe    = regexp.MustCompile(`^\s*(?:\[([^\[\]]*)\]|【([^【】]*)】)\s*$`)
	bracketTagRe    = regexp.MustCompile(`\[[^\[\]]*\]|【[^【】]*】`)
	parentheticalRe = regexp.MustCompile(`\([^()]*\)|（[^（）]*）`)
	structuralRe    = regexp.MustCompile(`[\[\]【】()（）]`)
)

// SanitizeReply reduces a raw generated reply to plain spoken text.
//
// Rules apply in order:
//  1. a reply that is nothing but one bracketed voice label is unwrapped;
//  2. remaining bracketed tag fragments are stripped (ASCII and full-width);
//  3. parenthetical asides are stripped (ASCII and full-width);
//  4. if that leaves nothing while the raw reply was non-empty, only the
//     structural punctuation is stripped from the raw reply instead.
func SanitizeReply(raw string) string {
	text := raw
	if m := wholeLabelRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			text = m[1]
		} else {
			text = m[2]
		}
	}

	text = bracketTagRe.ReplaceAllString(text, "")
	text = parentheticalRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" && strings.TrimSpace(raw) != "" {
		text = strings.TrimSpace(structuralRe.ReplaceAllString(raw, ""))
	}
	return text
}
