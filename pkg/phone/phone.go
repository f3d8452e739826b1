// Package phone validates and normalizes Israeli mobile numbers.
package phone

import (
	"regexp"
	"strings"
)

const (
	ErrMissing       = "מספר טלפון חסר"
	ErrInvalidFormat = "מספר טלפון לא תקין. פורמט נכון: 050-1234567 או +972-50-1234567"
	ErrInvalidPrefix = "קידומת טלפון לא תקינה. יש להזין מספר סלולרי ישראלי"
)

var (
	separators        = regexp.MustCompile(`[-\s]`)
	nationalForm      = regexp.MustCompile(`^0(5[0-9]|7[0-9])\d{7}$`)
	internationalForm = regexp.MustCompile(`^(\+?972)(5[0-9]|7[0-9])\d{7}$`)
)

var mobilePrefixes = map[string]struct{}{
	"50": {}, "51": {}, "52": {}, "53": {}, "54": {}, "55": {}, "58": {},
	"72": {}, "73": {}, "74": {}, "76": {}, "77": {}, "78": {}, "79": {},
}

// Result is the outcome of Validate. Normalized is only set when Valid.
type Result struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Validate normalizes input to the 10 digit national form (05XXXXXXXX) and
// checks the mobile prefix. It never fails; problems are reported in Result.
func Validate(input string) Result {
	cleaned := separators.ReplaceAllString(input, "")
	if cleaned == "" {
		return Result{Error: ErrMissing}
	}

	var normalized string
	switch {
	case nationalForm.MatchString(cleaned):
		normalized = cleaned
	case internationalForm.MatchString(cleaned):
		m := internationalForm.FindStringSubmatch(cleaned)
		normalized = "0" + strings.TrimPrefix(cleaned, m[1])
	default:
		return Result{Error: ErrInvalidFormat}
	}

	if _, ok := mobilePrefixes[normalized[1:3]]; !ok {
		return Result{Error: ErrInvalidPrefix}
	}

	return Result{Valid: true, Normalized: normalized}
}

// FormatForDisplay renders a normalized number as 0XX-XXXXXXX. Anything else
// is returned unchanged.
func FormatForDisplay(normalized string) string {
	if len(normalized) != 10 || normalized[0] != '0' {
		return normalized
	}
	return normalized[:3] + "-" + normalized[3:]
}
