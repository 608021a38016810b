package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

const (
	// DefaultURL is the default realtime websocket endpoint.
	DefaultURL = "wss://api.openai.com/v1/realtime"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-realtime-preview-2024-12-17"
)

// API owns the websocket connection and the event normalization layer. Every
// inbound transport message is republished on its fully-qualified server
// channel plus the server wildcard; every outbound event is assigned a
// generated event id and republished on the client channels before
// transmission.
type API struct {
	connMu sync.Mutex
	conn   *websocket.Conn

	config apiConfig

	server *emitter[events.ServerEvent]
	client *emitter[events.ClientEvent]
}

type apiConfig struct {
	url    string
	apiKey string
	model  string

	onDisconnect func(err error)
}

// APIOption configures an API.
type APIOption func(*apiConfig)

// WithURL overrides the websocket endpoint.
func WithURL(endpoint string) APIOption {
	return func(c *apiConfig) { c.url = endpoint }
}

// WithAPIKey sets the bearer key sent during the handshake.
func WithAPIKey(key string) APIOption {
	return func(c *apiConfig) { c.apiKey = key }
}

// WithModel sets the model requested at connect time.
func WithModel(model string) APIOption {
	return func(c *apiConfig) { c.model = model }
}

// WithDisconnectHandler registers a callback invoked when the read loop ends.
// The error is nil after a locally requested close.
func WithDisconnectHandler(handler func(err error)) APIOption {
	return func(c *apiConfig) { c.onDisconnect = handler }
}

// NewAPI returns an unconnected API.
func NewAPI(opts ...APIOption) *API {
	config := apiConfig{url: DefaultURL, model: DefaultModel}
	for _, opt := range opts {
		opt(&config)
	}

	return &API{
		config: config,
		server: newEmitter[events.ServerEvent](),
		client: newEmitter[events.ClientEvent](),
	}
}

// IsConnected reports whether the websocket is currently open.
func (a *API) IsConnected() bool {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	return a.conn != nil
}

// Connect dials the realtime endpoint and starts the read loop. Events are
// delivered in the order the backend sent them.
func (a *API) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect realtime api", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	a.connMu.Lock()
	defer a.connMu.Unlock()
	if a.conn != nil {
		return ErrAlreadyConnected
	}

	endpoint, err := url.Parse(a.config.url)
	if err != nil {
		return fmt.Errorf("invalid realtime url: %w", err)
	}
	query := endpoint.Query()
	query.Set("model", a.config.model)
	endpoint.RawQuery = query.Encode()
	span.SetAttributes(attribute.String("request.model", a.config.model))

	header := http.Header{"OpenAI-Beta": {"realtime=v1"}}
	if a.config.apiKey != "" {
		header.Set("Authorization", "Bearer "+a.config.apiKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		err = fmt.Errorf("failed to open realtime websocket: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	a.conn = conn
	go a.readLoop(conn)
	return nil
}

// Disconnect closes the websocket. The read loop drains and reports through
// the disconnect handler.
func (a *API) Disconnect() error {
	a.connMu.Lock()
	conn := a.conn
	a.conn = nil
	a.connMu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close realtime websocket: %w", err)
	}
	return nil
}

func (a *API) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			a.connMu.Lock()
			closedLocally := a.conn == nil
			a.conn = nil
			a.connMu.Unlock()

			if closedLocally {
				err = nil
			} else {
				logger.Warn("realtime websocket closed", "error", err)
			}
			if a.config.onDisconnect != nil {
				a.config.onDisconnect(err)
			}
			return
		}

		event, err := events.ParseServerEvent(message)
		if err != nil {
			logger.Warn("dropping unparseable server message", "error", err)
			continue
		}
		a.Receive(event)
	}
}

// Receive normalizes one inbound event and fans it out on the canonical
// channel and the wildcard. Names that already carry the server prefix pass
// through unchanged.
func (a *API) Receive(event events.ServerEvent) {
	if !events.IsHighFrequency(strings.TrimPrefix(event.Type, events.ServerPrefix)) {
		logger.Debug("received event", "type", event.Type, "event_id", event.EventID)
	}

	a.server.Emit(serverChannel(event.Type), event)
	a.server.Emit(events.ServerWildcard, event)
}

// Send assigns a generated event id, publishes the outbound event on the
// client channels, and writes it to the transport.
func (a *API) Send(eventType string, data map[string]any) error {
	a.connMu.Lock()
	conn := a.conn
	a.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	event := events.ClientEvent{
		Type:    eventType,
		EventID: generateEventID(),
		Data:    data,
	}

	if !events.IsHighFrequency(eventType) {
		logger.Debug("sending event", "type", eventType, "event_id", event.EventID)
	}
	a.client.Emit(events.ClientPrefix+eventType, event)
	a.client.Emit(events.ClientWildcard, event)

	if err := conn.WriteJSON(event); err != nil {
		return fmt.Errorf("failed to send %q event: %w", eventType, err)
	}
	return nil
}

// OnServer subscribes to a server event type ("*" for every server event).
// It returns an unsubscribe func.
func (a *API) OnServer(eventType string, handler func(events.ServerEvent)) func() {
	return a.server.On(serverChannel(eventType), handler)
}

// OnceServer subscribes for a single delivery of a server event type.
func (a *API) OnceServer(eventType string, handler func(events.ServerEvent)) func() {
	return a.server.Once(serverChannel(eventType), handler)
}

// OffServer drops every subscriber of a server event type.
func (a *API) OffServer(eventType string) {
	a.server.Off(serverChannel(eventType))
}

// WaitForServer blocks until the next server event of the given type.
func (a *API) WaitForServer(ctx context.Context, eventType string) (events.ServerEvent, error) {
	return a.server.WaitForNext(ctx, serverChannel(eventType))
}

// OnClient subscribes to an outbound event type ("*" for every sent event).
func (a *API) OnClient(eventType string, handler func(events.ClientEvent)) func() {
	channel := events.ClientPrefix + eventType
	if eventType == "*" || eventType == events.ClientWildcard {
		channel = events.ClientWildcard
	} else if strings.HasPrefix(eventType, events.ClientPrefix) {
		channel = eventType
	}
	return a.client.On(channel, handler)
}

func serverChannel(eventType string) string {
	if eventType == "*" || eventType == events.ServerWildcard {
		return events.ServerWildcard
	}
	if strings.HasPrefix(eventType, events.ServerPrefix) {
		return eventType
	}
	return events.ServerPrefix + eventType
}

func generateEventID() string {
	return "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
