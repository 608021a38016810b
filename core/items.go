package realtime

import (
	"github.com/revola-ai/realtime-api-wrapper/core/audio"
	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

// Item is one materialized conversational turn: the wire fields plus the
// derived Formatted projection maintained by the conversation fold.
type Item struct {
	events.Item

	Formatted Formatted
}

// Formatted is the render-ready projection of an item, accumulated from
// content parts and streamed deltas.
type Formatted struct {
	Text       string
	Transcript string
	Audio      audio.SampleBuffer

	// Tool is set for function_call items.
	Tool *FormattedTool
	// Output is set for function_call_output items.
	Output string
}

// FormattedTool mirrors a function call as it streams in.
type FormattedTool struct {
	Type      string
	Name      string
	CallID    string
	Arguments string
}

// Delta is the incremental fragment applied to an existing item by a single
// event. Only the field the event carried is populated; a nil *Delta means
// the event was structural (or was queued for a not-yet-known item).
type Delta struct {
	Text       string
	Transcript string
	Audio      audio.SampleBuffer
	Arguments  string
}

// Response is one generation episode: an ordered set of output item ids.
// An id is appended only after the item is registered in the store.
type Response struct {
	ID     string
	Status string
	Output []string
}

// pendingSpeechSegment buffers a speech boundary (and optionally its audio
// slice) for an item id that has not been materialized yet.
type pendingSpeechSegment struct {
	AudioStartMs int
	AudioEndMs   *int
	Audio        audio.SampleBuffer
}

// pendingFragment accumulates stream fragments for a not-yet-known item id.
// It is one shared side-table entry; each field drains into its own formatted
// counterpart at materialization.
type pendingFragment struct {
	Text       string
	Transcript string
	Arguments  string
}
