package visits

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// TopicVisitRegistered is the bus topic carrying Visit events.
const TopicVisitRegistered = "visits.registered"

// Visit is a logged resolution of an active alias.
type Visit struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Hash      shortener.Hash `json:"hash"`
	CreatedAt time.Time      `json:"createdAt"`
	ClientIP  string         `json:"clientIp,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
}

// Store persists visits. Visits are append-only.
type Store interface {
	// Append stores a visit. Appending an ID that is already stored is a no-op.
	Append(ctx context.Context, visit *Visit) error
	// ListByHash returns the visits of hash in insertion order.
	ListByHash(ctx context.Context, hash shortener.Hash) ([]Visit, error)
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata recorded with a visit.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// EventID implements messaging.Identified.
func (v *Visit) EventID() string {
	return v.ID
}
