package eventing

import "context"

type contextKey string

const (
	contextKeyEventID contextKey = "eventing.event_id"
	contextKeyActor   contextKey = "eventing.actor"
)

// Identified is implemented by events that carry their own id.
type Identified interface {
	ID() string
}

// WithEventID sets event id in context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, contextKeyEventID, eventID)
}

// EventIDFromContext returns the id of the event being handled.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyEventID).(string)
	return id, ok && id != ""
}

// WithActor sets the acting subject in context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// ActorFromContext returns the acting subject if set.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(contextKeyActor).(string)
	return actor
}
