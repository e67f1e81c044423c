package realtime

import (
	"encoding/json"
	"fmt"
)

// Kind names the event category of an envelope.
type Kind string

const (
	KindNotification     Kind = "notification"
	KindOrderUpdate      Kind = "order-update"
	KindCartSync         Kind = "cart-sync"
	KindNewOrder         Kind = "new-order"
	KindLowStockAlert    Kind = "low-stock-alert"
	KindDashboardMetrics Kind = "dashboard-metrics"
	KindActiveUsers      Kind = "active-users"
	KindPageView         Kind = "page-view"
	KindProductView      Kind = "product-view"
	KindCartAction       Kind = "cart-action"
)

// Scope selects the audience of an envelope.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
	ScopeAll   Scope = "all"
)

// Target is the audience an envelope is delivered to. UserID is only
// meaningful for ScopeUser. Topic, when set, replaces the user id in the
// event name; delivery still goes to UserID's connections only.
type Target struct {
	Scope  Scope  `json:"scope"`
	UserID string `json:"userId,omitempty"`
	Topic  string `json:"topic,omitempty"`
}

func ToUser(userID string) Target { return Target{Scope: ScopeUser, UserID: userID} }

// ToUserTopic reaches userID's connections under an event named after topic,
// such as one order of theirs.
func ToUserTopic(userID, topic string) Target {
	return Target{Scope: ScopeUser, UserID: userID, Topic: topic}
}

func ToAdmins() Target            { return Target{Scope: ScopeAdmin} }
func ToAll() Target               { return Target{Scope: ScopeAll} }

// Envelope is one outbound event. Payload must be JSON encodable.
type Envelope struct {
	Kind    Kind   `json:"kind"`
	Target  Target `json:"target"`
	Payload any    `json:"payload"`
}

// EventName is the name clients subscribe to. Private events carry the
// owner's id as a suffix; presence sent to admins gets its own name so the
// dashboard can listen separately from the storefront.
func (e Envelope) EventName() string {
	switch e.Target.Scope {
	case ScopeUser:
		if e.Target.Topic != "" {
			return fmt.Sprintf("%s-%s", e.Kind, e.Target.Topic)
		}
		return fmt.Sprintf("%s-%s", e.Kind, e.Target.UserID)
	case ScopeAdmin:
		if e.Kind == KindActiveUsers {
			return string(KindActiveUsers) + "-admin"
		}
	}
	return string(e.Kind)
}

// Frame is what goes over the wire, one per envelope.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode renders the envelope as a single wire frame.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Kind, err)
	}
	return json.Marshal(Frame{Event: e.EventName(), Data: data})
}

func (t Target) valid() bool {
	switch t.Scope {
	case ScopeUser:
		return t.UserID != ""
	case ScopeAdmin, ScopeAll:
		return true
	}
	return false
}
