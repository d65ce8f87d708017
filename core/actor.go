package core

import (
	"context"
	"net"
	"strings"
)

const (
	AnonymousUsername = "anonymous"
	UnknownIP         = "unknown"
)

type actorCtxKey struct{}

// Actor identifies who performs an operation and from where.
type Actor struct {
	Username string
	IP       string
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext returns the Actor carried by ctx.
// Missing parts are replaced by AnonymousUsername and UnknownIP.
func ActorFromContext(ctx context.Context) Actor {
	var actor Actor
	if ctx != nil {
		actor, _ = ctx.Value(actorCtxKey{}).(Actor)
	}
	if strings.TrimSpace(actor.Username) == "" {
		actor.Username = AnonymousUsername
	}
	if strings.TrimSpace(actor.IP) == "" {
		actor.IP = UnknownIP
	}
	return actor
}

// ClientIP returns the first X-Forwarded-For entry if any, else the host part of remoteAddr.
// An empty string is returned when neither is usable.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.SplitN(forwardedFor, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
