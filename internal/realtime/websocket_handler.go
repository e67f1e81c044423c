package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/models"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Authenticator verifies a token and returns the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Tracker accepts client analytics events. Track must not block.
type Tracker interface {
	Track(event models.AnalyticsEvent) bool
}

type HandlerOptions struct {
	AllowedOrigin     string
	MessagesPerSecond float64
	Burst             int
}

type eventHandler func(ctx context.Context, c *Client, data json.RawMessage)

// WebSocketHandler upgrades connections and routes inbound client events
type WebSocketHandler struct {
	hub      *Hub
	auth     Authenticator
	tracker  Tracker
	opts     HandlerOptions
	upgrader websocket.Upgrader
	handlers map[string]eventHandler
	log      *zap.Logger
}

func NewWebSocketHandler(hub *Hub, authn Authenticator, tracker Tracker, opts HandlerOptions, log *zap.Logger) *WebSocketHandler {
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}

	h := &WebSocketHandler{
		hub:     hub,
		auth:    authn,
		tracker: tracker,
		opts:    opts,
		log:     log.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin.
			return origin == "" || middleware.OriginAllowed(opts.AllowedOrigin, origin)
		},
	}
	h.handlers = map[string]eventHandler{
		"join-admin":         h.handleJoinAdmin,
		"track-page":         h.handleTrackPage,
		"track-product-view": h.handleTrackProductView,
		"track-cart-action":  h.handleTrackCartAction,
	}
	return h
}

// ServeHTTP upgrades the request and binds the caller's identity when a
// valid token comes with it, from ?token= or the Authorization header.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("failed to upgrade websocket", zap.Error(err))
		middleware.AddSpanError(ctx, err)
		return
	}

	client := &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.Burst),
		token:   token,
		handler: h,
	}
	client.id = h.hub.Register(client)
	client.log = h.log.With(zap.String("conn_id", client.id))

	if token != "" {
		h.bind(ctx, client, token)
	}

	// Detach from the request; it ends when ServeHTTP returns.
	connCtx := context.WithoutCancel(ctx)
	go client.WritePump()
	go client.ReadPump(connCtx)
}

// bind leaves the session anonymous when the token does not verify.
func (h *WebSocketHandler) bind(ctx context.Context, c *Client, token string) (*models.User, bool) {
	user, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		c.log.Debug("token rejected, session stays anonymous", zap.Error(err))
		return nil, false
	}
	return user, h.hub.BindIdentity(c.id, Identity{UserID: user.ID, Role: user.Role})
}

func (h *WebSocketHandler) dispatch(ctx context.Context, c *Client, msg inbound) {
	handle, ok := h.handlers[msg.Event]
	if !ok {
		c.log.Debug("unknown inbound event ignored", zap.String("event", msg.Event))
		return
	}
	handle(ctx, c, msg.Data)
}

type joinAdminData struct {
	Token string `json:"token"`
}

// handleJoinAdmin grants the admin channel only when the server-verified
// role is admin. The client's request alone grants nothing.
func (h *WebSocketHandler) handleJoinAdmin(ctx context.Context, c *Client, data json.RawMessage) {
	var in joinAdminData
	_ = json.Unmarshal(data, &in)

	token := in.Token
	if token == "" {
		token = c.token
	}
	if token == "" {
		c.log.Debug("join-admin without token ignored")
		return
	}

	user, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		c.log.Debug("join-admin token rejected", zap.Error(err))
		return
	}
	if !user.IsAdmin() {
		c.log.Warn("join-admin from non-admin ignored", zap.String("user_id", user.ID))
		return
	}
	if h.hub.BindIdentity(c.id, Identity{UserID: user.ID, Role: user.Role}) {
		c.token = token
		middleware.AddSpanEvent(ctx, "admin joined", attribute.String("user.id", user.ID))
	}
}

type trackPageData struct {
	Page      string    `json:"page"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}

type trackProductViewData struct {
	ProductID string    `json:"productId"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type trackCartActionData struct {
	Action    string    `json:"action"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *WebSocketHandler) handleTrackPage(ctx context.Context, c *Client, data json.RawMessage) {
	var in trackPageData
	if err := json.Unmarshal(data, &in); err != nil || in.Page == "" {
		return
	}
	h.track(c, models.AnalyticsEvent{
		Kind:       models.AnalyticsPageView,
		Page:       in.Page,
		Referrer:   in.Referrer,
		UserAgent:  in.UserAgent,
		OccurredAt: in.Timestamp,
	})
}

func (h *WebSocketHandler) handleTrackProductView(ctx context.Context, c *Client, data json.RawMessage) {
	var in trackProductViewData
	if err := json.Unmarshal(data, &in); err != nil || in.ProductID == "" {
		return
	}
	h.track(c, models.AnalyticsEvent{
		Kind:       models.AnalyticsProductView,
		ProductID:  in.ProductID,
		Category:   in.Category,
		Price:      in.Price,
		OccurredAt: in.Timestamp,
	})
}

func (h *WebSocketHandler) handleTrackCartAction(ctx context.Context, c *Client, data json.RawMessage) {
	var in trackCartActionData
	if err := json.Unmarshal(data, &in); err != nil || in.ProductID == "" {
		return
	}
	if in.Action != "add" && in.Action != "remove" {
		return
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	h.track(c, models.AnalyticsEvent{
		Kind:       models.AnalyticsCartAction,
		Action:     in.Action,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		OccurredAt: in.Timestamp,
	})
}

// track stamps the event with the session's verified user, never a
// client-supplied id.
func (h *WebSocketHandler) track(c *Client, ev models.AnalyticsEvent) {
	if s, ok := h.hub.Session(c.id); ok && !s.Anonymous() {
		ev.UserID = s.UserID
	}
	now := time.Now()
	if ev.OccurredAt.IsZero() || ev.OccurredAt.After(now) {
		ev.OccurredAt = now
	}
	if !h.tracker.Track(ev) {
		c.log.Debug("analytics queue full, event dropped", zap.String("kind", string(ev.Kind)))
	}
}
