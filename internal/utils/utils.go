package utils

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/arunakai/care-home-saas/internal/models"
)

// context key
type ctxKey string

const ctxUserKey ctxKey = "current_user"

// WithUser stores the resolved caller on ctx. A nil user is not stored.
func WithUser(ctx context.Context, u *models.User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxUserKey, u)
}

// UserFrom returns the caller resolved for this request, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUserKey).(*models.User)
	return u
}

// ParseTTL parses TTLs such as "24h", "15m", "20s", "1h30m" or bare
// minutes ("1440"). An empty string yields def.
func ParseTTL(ttlStr string, def time.Duration) (time.Duration, error) {
	ttlStr = strings.TrimSpace(ttlStr)
	if ttlStr == "" {
		return def, nil
	}

	if strings.HasSuffix(ttlStr, "m") ||
		strings.HasSuffix(ttlStr, "h") ||
		strings.HasSuffix(ttlStr, "s") {
		return time.ParseDuration(ttlStr)
	}

	// fallback: minutes
	min, err := strconv.Atoi(ttlStr)
	if err != nil {
		return 0, err
	}
	return time.Duration(min) * time.Minute, nil
}
