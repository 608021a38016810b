package events

import (
	"encoding/json"
	"fmt"
)

// ServerEvent is the flat inbound envelope. One struct carries the union of
// the per-type fields; absent fields stay zero.
type ServerEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`

	// Session and conversation resources (session.*, conversation.created).
	Session      *Session      `json:"session,omitempty"`
	Conversation *Conversation `json:"conversation,omitempty"`

	// Item payload (conversation.item.*, response.output_item.*).
	Item           *Item  `json:"item,omitempty"`
	PreviousItemID string `json:"previous_item_id,omitempty"`

	// Reference fields shared by fragment and boundary events.
	ItemID       string `json:"item_id,omitempty"`
	ResponseID   string `json:"response_id,omitempty"`
	OutputIndex  int    `json:"output_index,omitempty"`
	ContentIndex int    `json:"content_index,omitempty"`

	// Speech boundary and truncation times (input_audio_buffer.speech_*,
	// conversation.item.truncated).
	AudioStartMs int `json:"audio_start_ms,omitempty"`
	AudioEndMs   int `json:"audio_end_ms,omitempty"`

	// Transcript carries completed input-audio transcriptions.
	Transcript string `json:"transcript,omitempty"`

	// Delta carries incremental text, transcript and arguments fragments.
	// For audio delta events it holds base64-encoded PCM.
	Delta string `json:"delta,omitempty"`

	// Part is the content part for response.content_part.added.
	Part *ContentPart `json:"part,omitempty"`

	// Response resource (response.created, response.done).
	Response *Response `json:"response,omitempty"`

	// Function call fields.
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// Error detail (error, transcription failures).
	Error *ErrorDetail `json:"error,omitempty"`

	// Raw preserves the original JSON message for pass-through consumers.
	Raw json.RawMessage `json:"-"`
}

// Item is the wire form of one conversational turn.
type Item struct {
	ID        string        `json:"id,omitempty"`
	Object    string        `json:"object,omitempty"`
	Type      string        `json:"type,omitempty"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// ContentPart is one indexed part of a message item's content.
type ContentPart struct {
	Type       string  `json:"type,omitempty"`
	Text       *string `json:"text,omitempty"`
	Audio      string  `json:"audio,omitempty"`
	Transcript *string `json:"transcript,omitempty"`
	ID         string  `json:"id,omitempty"`
}

// Response is the wire form of one generation episode.
type Response struct {
	ID     string `json:"id,omitempty"`
	Object string `json:"object,omitempty"`
	Status string `json:"status,omitempty"`
	Output []Item `json:"output,omitempty"`
}

// Session is the session resource echoed by session.created/updated.
type Session struct {
	ID                      string          `json:"id,omitempty"`
	Object                  string          `json:"object,omitempty"`
	Model                   string          `json:"model,omitempty"`
	ExpiresAt               int64           `json:"expires_at,omitempty"`
	Modalities              []string        `json:"modalities,omitempty"`
	Instructions            string          `json:"instructions,omitempty"`
	Voice                   string          `json:"voice,omitempty"`
	InputAudioFormat        string          `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string          `json:"output_audio_format,omitempty"`
	InputAudioTranscription json.RawMessage `json:"input_audio_transcription,omitempty"`
	TurnDetection           json.RawMessage `json:"turn_detection,omitempty"`
	Tools                   json.RawMessage `json:"tools,omitempty"`
	ToolChoice              json.RawMessage `json:"tool_choice,omitempty"`
	Temperature             float64         `json:"temperature,omitempty"`
}

// Conversation is the conversation resource from conversation.created.
type Conversation struct {
	ID     string `json:"id,omitempty"`
	Object string `json:"object,omitempty"`
}

// ErrorDetail describes an error reported by the backend.
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Param   string `json:"param,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

func (e *ErrorDetail) Error() string {
	if e == nil {
		return "unknown server error"
	}
	return fmt.Sprintf("server error (%s/%s): %s", e.Type, e.Code, e.Message)
}

// ParseServerEvent unmarshals a raw transport message into a ServerEvent,
// keeping the original bytes on Raw.
func ParseServerEvent(message []byte) (ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return ServerEvent{}, fmt.Errorf("failed to parse server event: %w", err)
	}
	event.Raw = message
	return event, nil
}
