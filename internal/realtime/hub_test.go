package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTransport records frames in memory.
type fakeTransport struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	full   bool
}

func (f *fakeTransport) Deliver(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return ErrSlowConsumer
	}
	var fr Frame
	if err := json.Unmarshal(frame, &fr); err != nil {
		return err
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// events returns received event names, presence excluded.
func (f *fakeTransport) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, fr := range f.frames {
		if fr.Event == "active-users" || fr.Event == "active-users-admin" {
			continue
		}
		out = append(out, fr.Event)
	}
	return out
}

func (f *fakeTransport) all() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Frame(nil), f.frames...)
}

type recordingForwarder struct {
	envs []Envelope
}

func (r *recordingForwarder) Forward(env Envelope) { r.envs = append(r.envs, env) }

func newTestHub() *Hub {
	return NewHub(zap.NewNop())
}

func TestHub_AdminChannelOnlyReachesAdmins(t *testing.T) {
	hub := newTestHub()
	admin, customer := &fakeTransport{}, &fakeTransport{}

	adminID := hub.Register(admin)
	customerID := hub.Register(customer)
	require.True(t, hub.BindIdentity(adminID, Identity{UserID: "a1", Role: models.RoleAdmin}))
	require.True(t, hub.BindIdentity(customerID, Identity{UserID: "c1", Role: models.RoleCustomer}))

	n := hub.Publish(Envelope{
		Kind:    KindLowStockAlert,
		Target:  ToAdmins(),
		Payload: models.LowStockAlert{ProductID: "p1", Name: "Tee", Stock: 2, Threshold: 10},
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"low-stock-alert"}, admin.events())
	assert.Empty(t, customer.events())
}

func TestHub_UnregisteredSessionReceivesNothing(t *testing.T) {
	hub := newTestHub()
	tr := &fakeTransport{}

	id := hub.Register(tr)
	require.True(t, hub.BindIdentity(id, Identity{UserID: "u1", Role: models.RoleCustomer}))
	hub.Unregister(id)

	assert.NotPanics(t, func() {
		n := hub.Publish(Envelope{Kind: KindNotification, Target: ToUser("u1"), Payload: "hi"})
		assert.Equal(t, 0, n)
	})
	assert.Empty(t, tr.events())
	assert.True(t, tr.closed)
	assert.Equal(t, 0, hub.ActiveCount())

	hub.Unregister(id)
	hub.Unregister("never-registered")
}

func TestHub_TopicEventReachesOnlyOwner(t *testing.T) {
	hub := newTestHub()
	owner, stranger := &fakeTransport{}, &fakeTransport{}
	hub.BindIdentity(hub.Register(owner), Identity{UserID: "u1"})
	hub.BindIdentity(hub.Register(stranger), Identity{UserID: "u2"})

	n := hub.Publish(Envelope{Kind: KindOrderUpdate, Target: ToUserTopic("u1", "ord-7"), Payload: models.OrderUpdateEvent{OrderID: "ord-7"}})

	assert.Equal(t, 1, n)
	assert.Contains(t, owner.events(), "order-update-ord-7")
	assert.NotContains(t, stranger.events(), "order-update-ord-7")
}

func TestHub_PerTargetOrderFollowsPublishOrder(t *testing.T) {
	hub := newTestHub()
	tr := &fakeTransport{}
	id := hub.Register(tr)
	hub.BindIdentity(id, Identity{UserID: "u1"})

	for _, s := range []models.OrderStatus{models.StatusPending, models.StatusProcessing, models.StatusShipped} {
		hub.Publish(Envelope{Kind: KindOrderUpdate, Target: ToUser("u1"), Payload: models.OrderUpdateEvent{Status: s}})
	}

	var got []models.OrderStatus
	for _, fr := range tr.all() {
		if fr.Event != "order-update-u1" {
			continue
		}
		var ev models.OrderUpdateEvent
		require.NoError(t, json.Unmarshal(fr.Data, &ev))
		got = append(got, ev.Status)
	}
	assert.Equal(t, []models.OrderStatus{models.StatusPending, models.StatusProcessing, models.StatusShipped}, got)
}

func TestHub_BindIdentity(t *testing.T) {
	hub := newTestHub()
	id := hub.Register(&fakeTransport{})

	assert.False(t, hub.BindIdentity("unknown", Identity{UserID: "u1"}))
	assert.False(t, hub.BindIdentity(id, Identity{}), "empty identity leaves session anonymous")

	s, ok := hub.Session(id)
	require.True(t, ok)
	assert.True(t, s.Anonymous())

	assert.True(t, hub.BindIdentity(id, Identity{UserID: "u1", Role: "superuser"}))
	assert.True(t, hub.BindIdentity(id, Identity{UserID: "u1", Role: "superuser"}))

	s, _ = hub.Session(id)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, models.RoleCustomer, s.Role, "unknown role never grants admin")
}

func TestHub_PrivateEventsReachEveryConnectionOfTheUser(t *testing.T) {
	hub := newTestHub()
	tab1, tab2, other := &fakeTransport{}, &fakeTransport{}, &fakeTransport{}
	hub.BindIdentity(hub.Register(tab1), Identity{UserID: "u1"})
	hub.BindIdentity(hub.Register(tab2), Identity{UserID: "u1"})
	hub.BindIdentity(hub.Register(other), Identity{UserID: "u2"})

	n := hub.Publish(Envelope{Kind: KindCartSync, Target: ToUser("u1"), Payload: models.NewCart("u1", nil)})

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"cart-sync-u1"}, tab1.events())
	assert.Equal(t, []string{"cart-sync-u1"}, tab2.events())
	assert.Empty(t, other.events())
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub := newTestHub()
	slow, fast := &fakeTransport{}, &fakeTransport{}
	slowID := hub.Register(slow)
	hub.Register(fast)

	slow.mu.Lock()
	slow.full = true
	slow.mu.Unlock()

	n := hub.Publish(Envelope{Kind: KindNewOrder, Target: ToAll(), Payload: "x"})

	assert.Equal(t, 1, n)
	_, ok := hub.Session(slowID)
	assert.False(t, ok)
	assert.True(t, slow.closed)
	assert.Equal(t, 1, hub.ActiveCount())
}

func TestHub_PresenceAnnouncedOnRegisterAndUnregister(t *testing.T) {
	hub := newTestHub()
	watcher := &fakeTransport{}
	hub.BindIdentity(hub.Register(watcher), Identity{UserID: "a1", Role: models.RoleAdmin})

	id := hub.Register(&fakeTransport{})
	hub.Unregister(id)

	var public, admin []int
	for _, fr := range watcher.all() {
		var p map[string]int
		require.NoError(t, json.Unmarshal(fr.Data, &p))
		switch fr.Event {
		case "active-users":
			public = append(public, p["count"])
		case "active-users-admin":
			admin = append(admin, p["count"])
		}
	}
	assert.Equal(t, []int{2, 1}, public[len(public)-2:])
	assert.Equal(t, []int{2, 1}, admin)
}

func TestHub_ForwardsPublishedEnvelopes(t *testing.T) {
	hub := newTestHub()
	fwd := &recordingForwarder{}
	hub.SetForwarder(fwd)

	hub.Register(&fakeTransport{})
	hub.Publish(Envelope{Kind: KindNewOrder, Target: ToAdmins(), Payload: "x"})
	hub.PublishLocal(Envelope{Kind: KindNewOrder, Target: ToAdmins(), Payload: "y"})

	require.Len(t, fwd.envs, 1, "presence and local publishes stay on this instance")
	assert.Equal(t, KindNewOrder, fwd.envs[0].Kind)
}

func TestHub_InvalidTargetIgnored(t *testing.T) {
	hub := newTestHub()
	tr := &fakeTransport{}
	hub.Register(tr)

	assert.Equal(t, 0, hub.Publish(Envelope{Kind: KindNotification, Target: ToUser(""), Payload: "x"}))
	assert.Equal(t, 0, hub.Publish(Envelope{Kind: KindNotification, Target: Target{Scope: "galaxy"}, Payload: "x"}))
	assert.Empty(t, tr.events())
}

func TestEnvelope_EventName(t *testing.T) {
	tests := []struct {
		env  Envelope
		want string
	}{
		{Envelope{Kind: KindNotification, Target: ToUser("42")}, "notification-42"},
		{Envelope{Kind: KindOrderUpdate, Target: ToUser("42")}, "order-update-42"},
		{Envelope{Kind: KindOrderUpdate, Target: ToUserTopic("42", "ord-7")}, "order-update-ord-7"},
		{Envelope{Kind: KindCartSync, Target: ToUser("42")}, "cart-sync-42"},
		{Envelope{Kind: KindDashboardMetrics, Target: ToAdmins()}, "dashboard-metrics"},
		{Envelope{Kind: KindActiveUsers, Target: ToAdmins()}, "active-users-admin"},
		{Envelope{Kind: KindActiveUsers, Target: ToAll()}, "active-users"},
		{Envelope{Kind: KindPageView, Target: ToAdmins()}, "page-view"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.env.EventName())
		})
	}
}
