// Package queue defines message payloads exchanged over the message broker.
package queue

// AuthQueueName is the durable queue auth events are published to.
const AuthQueueName = "auth.events"

// Event types carried on the auth.events queue.
const (
	EventLoginSuccess  = "login.success"
	EventRefreshDenied = "refresh.denied"
	EventLogout        = "logout"
	EventLogoutAll     = "logout.all"
	EventUserCreated   = "user.created"
	EventUserDeleted   = "user.deleted"
	EventTokensPurged  = "tokens.purged"
)

// AuthEvent is published for notable session lifecycle moments. It
// carries enough for downstream consumers (the bot's notification
// channel, audit tooling) to log or alert without querying the primary
// database. Jti identifies the affected record for operator diagnosis;
// the raw token never appears here.
type AuthEvent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	UserID   uint64 `json:"user_id,omitempty"`
	Jti      string `json:"jti,omitempty"`
	Count    int64  `json:"count,omitempty"`
	Detail   string `json:"detail,omitempty"`
	At       string `json:"at"`
}
