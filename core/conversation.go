package realtime

import (
	"log/slog"
	"sync"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
)

// Conversation is the stateful fold engine. It owns the materialized item
// sequence and lookup, the response bookkeeping, and the out-of-order pending
// buffers for fragments that reference items the backend has not created yet.
//
// Exactly one goroutine is expected to drive ProcessEvent; the internal mutex
// makes the read accessors safe to call concurrently, but Items returns
// shared item pointers, so mutating a returned item from outside is undefined.
type Conversation struct {
	mu sync.Mutex

	logger   *slog.Logger
	encoding audio.EncodingInfo

	items      []*Item
	itemLookup map[string]*Item

	responses      []*Response
	responseLookup map[string]*Response

	queuedSpeech     map[string]*pendingSpeechSegment
	queuedFragments  map[string]*pendingFragment
	queuedInputAudio audio.SampleBuffer
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithConversationLogger routes the store's fail-soft warnings to the given
// logger so callers (and tests) can observe them.
func WithConversationLogger(logger *slog.Logger) ConversationOption {
	return func(c *Conversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConversation returns an empty store at the default audio format (pcm16,
// 24 kHz).
func NewConversation(opts ...ConversationOption) *Conversation {
	c := &Conversation{
		logger:   logger,
		encoding: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Conversation) reset() {
	c.items = nil
	c.itemLookup = map[string]*Item{}
	c.responses = nil
	c.responseLookup = map[string]*Response{}
	c.queuedSpeech = map[string]*pendingSpeechSegment{}
	c.queuedFragments = map[string]*pendingFragment{}
	c.queuedInputAudio = nil
}

// Clear atomically discards all items, responses, pending buffers and queued
// input audio, returning the store to its initial empty state.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// SetAudioFormat switches the active sample rate used for truncation and
// speech-segment slicing. Already-stored audio is not rescaled.
func (c *Conversation) SetAudioFormat(name string) error {
	encoding, err := audio.GetEncodingInfo(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.encoding = encoding
	c.mu.Unlock()
	return nil
}

// QueueInputAudio stages a raw input-audio buffer to be attached to the next
// user message item that materializes. At most one buffer is pending.
func (c *Conversation) QueueInputAudio(buffer audio.SampleBuffer) {
	c.mu.Lock()
	c.queuedInputAudio = buffer.Clone()
	c.mu.Unlock()
}

// SampleRate returns the active sample rate in Hz.
func (c *Conversation) SampleRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding.SampleRate
}

// Item returns the item with the given id, or nil.
func (c *Conversation) Item(id string) *Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemLookup[id]
}

// Items returns the items in conversation order. The slice is a defensive
// copy of the ordering; the contained items are shared references.
func (c *Conversation) Items() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]*Item, len(c.items))
	copy(items, c.items)
	return items
}

// Response returns the response with the given id, or nil.
func (c *Conversation) Response(id string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responseLookup[id]
}

// Responses returns the responses in arrival order, as a copied slice.
func (c *Conversation) Responses() []*Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	responses := make([]*Response, len(c.responses))
	copy(responses, c.responses)
	return responses
}
