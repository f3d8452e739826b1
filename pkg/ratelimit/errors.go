package ratelimit

import (
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
)

// DeniedError converts a denied result into the localized RATE_LIMIT_EXCEEDED
// error returned to clients.
func DeniedError(res Result, loc *time.Location) *pkgerrors.Error {
	label := res.ResetLabel(loc)
	return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("יותר מדי בקשות. נסה שוב בשעה %s", label)).
		WithDetails(map[string]any{
			"reset_at":    res.ResetAt.UTC().Format(time.RFC3339),
			"reset_label": label,
			"limit":       res.Limit,
		})
}
