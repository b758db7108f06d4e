// Package sessions keeps short-lived wizard and chat state between HTTP
// requests. Values are stored as JSON under a kind/id key and expire after
// a fixed TTL measured from the last save.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL bounds how long an idle session survives.
const DefaultTTL = 2 * time.Hour

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("sessions: not found")

// Store persists session values.
type Store interface {
	Load(ctx context.Context, kind, id string, v any) error
	Save(ctx context.Context, kind, id string, v any) error
	Delete(ctx context.Context, kind, id string) error
}

func sessionKey(kind, id string) string {
	return fmt.Sprintf("session:%s:%s", kind, id)
}
