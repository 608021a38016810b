// Package realtime reconstructs conversation state from the event stream of
// a realtime, bidirectional conversational API. The API type normalizes and
// fans out transport events, the Conversation type folds them into a
// queryable item model, and the Client wires the two together with session,
// audio and tool management.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

// ConversationUpdate describes one fold step: the item the event touched and
// the incremental delta, either of which may be nil.
type ConversationUpdate struct {
	Item  *Item
	Delta *Delta
}

// Client is the high-level realtime client: it drives the API connection,
// feeds every server event through the conversation store, executes tool
// calls, and exposes the folded conversation.
type Client struct {
	mu sync.Mutex

	api          *API
	conversation *Conversation

	sessionConfig SessionConfig
	session       *events.Session
	tools         map[string]registeredTool

	// inputAudioBuffer accumulates appended input audio so speech segments
	// can be sliced out of it and queued audio attached to user items.
	inputAudioBuffer audio.SampleBuffer

	items *emitter[*Item]

	onUpdated     func(ConversationUpdate)
	onInterrupted func()
	onError       func(events.ErrorDetail)

	baseContext context.Context
}

const (
	itemAppearedChannel  = "item.appeared"
	itemCompletedChannel = "item.completed"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPI supplies a preconfigured API (endpoint, key, model).
func WithAPI(api *API) ClientOption {
	return func(c *Client) { c.api = api }
}

// WithSessionDefaults applies session options before the first
// session.update.
func WithSessionDefaults(opts ...SessionOption) ClientOption {
	return func(c *Client) {
		for _, opt := range opts {
			opt(&c.sessionConfig)
		}
	}
}

// WithConversationUpdatedHandler is called after every fold step that
// touched an item.
func WithConversationUpdatedHandler(handler func(ConversationUpdate)) ClientOption {
	return func(c *Client) { c.onUpdated = handler }
}

// WithInterruptionHandler is called when user speech starts while a response
// may be playing.
func WithInterruptionHandler(handler func()) ClientOption {
	return func(c *Client) { c.onInterrupted = handler }
}

// WithServerErrorHandler receives error events from the backend.
func WithServerErrorHandler(handler func(events.ErrorDetail)) ClientOption {
	return func(c *Client) { c.onError = handler }
}

// NewClient returns a client with default session configuration, wired to a
// default API unless one is supplied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		conversation:  NewConversation(),
		sessionConfig: defaultSessionConfig(),
		tools:         map[string]registeredTool{},
		items:         newEmitter[*Item](),
		baseContext:   context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		c.api = NewAPI()
	}

	c.api.OnServer("*", c.handleServerEvent)
	return c
}

// API exposes the underlying normalization/dispatch layer.
func (c *Client) API() *API {
	return c.api
}

// Conversation exposes the folded conversation store.
func (c *Client) Conversation() *Conversation {
	return c.conversation
}

// Session returns the server-acknowledged session resource, if any.
func (c *Client) Session() *events.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// IsConnected reports whether the transport is open.
func (c *Client) IsConnected() bool {
	return c.api.IsConnected()
}

// Connect opens the transport and announces the current session
// configuration.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.api.Connect(ctx); err != nil {
		return err
	}
	if err := c.sendSessionUpdate(); err != nil {
		return fmt.Errorf("failed to announce session configuration: %w", err)
	}
	return nil
}

// Disconnect closes the transport and clears the conversation.
func (c *Client) Disconnect() error {
	err := c.api.Disconnect()
	c.Reset()
	return err
}

// Reset clears the conversation store and the pending input audio.
func (c *Client) Reset() {
	c.conversation.Clear()
	c.mu.Lock()
	c.inputAudioBuffer = nil
	c.session = nil
	c.mu.Unlock()
}

// UpdateSession applies session options and sends a session.update when
// connected.
func (c *Client) UpdateSession(opts ...SessionOption) error {
	c.mu.Lock()
	for _, opt := range opts {
		opt(&c.sessionConfig)
	}
	c.mu.Unlock()

	if !c.api.IsConnected() {
		return nil
	}
	return c.sendSessionUpdate()
}

func (c *Client) sendSessionUpdate() error {
	if !c.api.IsConnected() {
		return nil
	}

	c.mu.Lock()
	config := c.sessionConfig
	toolDefinitions := make([]ToolDefinition, 0, len(c.tools)+len(config.Tools))
	toolDefinitions = append(toolDefinitions, config.Tools...)
	for _, tool := range c.tools {
		toolDefinitions = append(toolDefinitions, tool.definition)
	}
	config.Tools = toolDefinitions
	c.mu.Unlock()

	return c.api.Send(events.TypeSessionUpdate, map[string]any{"session": config})
}

// SendUserMessageContent creates a user message item from the given content
// parts and requests a response.
func (c *Client) SendUserMessageContent(content []events.ContentPart) error {
	if len(content) > 0 {
		if err := c.api.Send(events.TypeConversationItemCreate, map[string]any{
			"item": map[string]any{
				"type":    events.ItemTypeMessage,
				"role":    events.RoleUser,
				"content": content,
			},
		}); err != nil {
			return err
		}
	}
	return c.CreateResponse()
}

// AppendInputAudio streams input audio to the backend and keeps a local copy
// so detected speech segments can be sliced out of it.
func (c *Client) AppendInputAudio(samples audio.SampleBuffer) error {
	if samples.Len() == 0 {
		return nil
	}

	if err := c.api.Send(events.TypeInputAudioBufferAppend, map[string]any{
		"audio": samples.EncodeBase64(),
	}); err != nil {
		return err
	}

	c.mu.Lock()
	c.inputAudioBuffer = c.inputAudioBuffer.Append(samples)
	c.mu.Unlock()
	return nil
}

// CreateResponse asks the model to respond. With server VAD disabled, any
// accumulated input audio is committed and queued onto the upcoming user
// item first.
func (c *Client) CreateResponse() error {
	c.mu.Lock()
	manualTurns := c.sessionConfig.TurnDetection == nil
	pendingAudio := c.inputAudioBuffer
	c.mu.Unlock()

	if manualTurns && pendingAudio.Len() > 0 {
		if err := c.api.Send(events.TypeInputAudioBufferCommit, nil); err != nil {
			return err
		}
		c.conversation.QueueInputAudio(pendingAudio)
		c.mu.Lock()
		c.inputAudioBuffer = nil
		c.mu.Unlock()
	}

	return c.api.Send(events.TypeResponseCreate, nil)
}

// CancelResponse cancels the in-flight response. When itemID names an
// assistant message that is already streaming, its audio is truncated at
// sampleCount so local state matches what the user actually heard.
func (c *Client) CancelResponse(itemID string, sampleCount int) (*Item, error) {
	if err := c.api.Send(events.TypeResponseCancel, nil); err != nil {
		return nil, err
	}
	if itemID == "" {
		return nil, nil
	}

	item := c.conversation.Item(itemID)
	if item == nil {
		return nil, fmt.Errorf("could not find item %q to cancel", itemID)
	}
	if item.Type != events.ItemTypeMessage || item.Role != events.RoleAssistant {
		return nil, fmt.Errorf("can only cancel assistant message items, got %s/%s", item.Type, item.Role)
	}

	audioEndMs := sampleCount * 1000 / c.conversation.SampleRate()
	if err := c.api.Send(events.TypeConversationItemTruncate, map[string]any{
		"item_id":       itemID,
		"content_index": 0,
		"audio_end_ms":  audioEndMs,
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem asks the backend to remove an item; the local store updates when
// the deletion event echoes back.
func (c *Client) DeleteItem(itemID string) error {
	return c.api.Send(events.TypeConversationItemDelete, map[string]any{"item_id": itemID})
}

// WaitForNextItem blocks until the next item materializes.
func (c *Client) WaitForNextItem(ctx context.Context) (*Item, error) {
	return c.items.WaitForNext(ctx, itemAppearedChannel)
}

// WaitForNextCompletedItem blocks until the next item reaches completed
// status.
func (c *Client) WaitForNextCompletedItem(ctx context.Context) (*Item, error) {
	return c.items.WaitForNext(ctx, itemCompletedChannel)
}

// handleServerEvent routes normalized server events into the conversation
// fold and surfaces the resulting updates.
func (c *Client) handleServerEvent(event events.ServerEvent) {
	switch event.Type {
	case events.TypeError:
		detail := events.ErrorDetail{}
		if event.Error != nil {
			detail = *event.Error
		}
		logger.Error("server error event", "type", detail.Type, "code", detail.Code, "message", detail.Message)
		if c.onError != nil {
			c.onError(detail)
		}
		return

	case events.TypeSessionCreated, events.TypeSessionUpdated:
		c.mu.Lock()
		c.session = event.Session
		c.mu.Unlock()
		return

	case events.TypeConversationCreated,
		events.TypeConversationItemInputAudioTranscriptionFailed,
		events.TypeInputAudioBufferCommitted,
		events.TypeInputAudioBufferCleared,
		events.TypeResponseDone,
		events.TypeResponseContentPartDone,
		events.TypeResponseTextDone,
		events.TypeResponseOutputTextDone,
		events.TypeResponseAudioTranscriptDone,
		events.TypeResponseOutputAudioTranscriptDone,
		events.TypeResponseAudioDone,
		events.TypeResponseOutputAudioDone,
		events.TypeResponseFunctionCallArgumentsDone,
		events.TypeRateLimitsUpdated:
		// Bookkeeping events with no conversation fold.
		return
	}

	var (
		item  *Item
		delta *Delta
		err   error
	)
	switch event.Type {
	case events.TypeInputAudioBufferSpeechStarted:
		if c.onInterrupted != nil {
			c.onInterrupted()
		}
		item, delta, err = c.conversation.ProcessEvent(event)
	case events.TypeInputAudioBufferSpeechStopped:
		c.mu.Lock()
		inputBuffer := c.inputAudioBuffer
		c.mu.Unlock()
		item, delta, err = c.conversation.ProcessEvent(event, inputBuffer)
	default:
		item, delta, err = c.conversation.ProcessEvent(event)
	}
	if err != nil {
		logger.Error("failed to process server event", "type", event.Type, "error", err)
		return
	}
	if item == nil {
		return
	}

	if c.onUpdated != nil {
		c.onUpdated(ConversationUpdate{Item: item, Delta: delta})
	}

	switch event.Type {
	case events.TypeConversationItemCreated, events.TypeConversationItemAdded,
		events.TypeResponseOutputItemAdded:
		c.items.Emit(itemAppearedChannel, item)
	}

	if item.Status == events.ItemStatusCompleted &&
		(event.Type == events.TypeConversationItemDone || event.Type == events.TypeResponseOutputItemDone) {
		c.items.Emit(itemCompletedChannel, item)
		if item.Type == events.ItemTypeFunctionCall && item.Formatted.Tool != nil {
			go c.callTool(c.baseContext, *item.Formatted.Tool)
		}
	}
}
