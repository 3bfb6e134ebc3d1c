package auth

import (
	"context"
	"strings"

	"github.com/VentixeAssignment/authservice/internal/common"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// WithSubject returns ctx carrying the id of the authenticated caller.
func WithSubject(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, subjectKey, userID)
}

// SubjectFrom returns the caller id stored by WithSubject, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subjectKey).(string)
	return id, ok && id != ""
}

// BearerToken extracts the token from an authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(common.BearerPrefix):])
}
