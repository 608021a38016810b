package events

// Dispatch namespaces. Inbound events republish under Server, outbound under
// Client; the wildcard channels see every event of their direction.
const (
	ServerPrefix   = "server."
	ServerWildcard = "server.*"
	ClientPrefix   = "client."
	ClientWildcard = "client.*"
)

// Client event types (sent from client to server).
const (
	TypeSessionUpdate = "session.update"

	TypeInputAudioBufferAppend = "input_audio_buffer.append"
	TypeInputAudioBufferCommit = "input_audio_buffer.commit"
	TypeInputAudioBufferClear  = "input_audio_buffer.clear"

	TypeConversationItemCreate   = "conversation.item.create"
	TypeConversationItemTruncate = "conversation.item.truncate"
	TypeConversationItemDelete   = "conversation.item.delete"

	TypeResponseCreate = "response.create"
	TypeResponseCancel = "response.cancel"
)

// Server event types (sent from server to client).
const (
	TypeError = "error"

	TypeSessionCreated = "session.created"
	TypeSessionUpdated = "session.updated"

	TypeConversationCreated = "conversation.created"

	// TypeConversationItemCreated and TypeConversationItemAdded are the
	// legacy and current spellings of the same materialization event.
	TypeConversationItemCreated = "conversation.item.created"
	TypeConversationItemAdded   = "conversation.item.added"
	TypeConversationItemDone    = "conversation.item.done"

	TypeConversationItemInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	TypeConversationItemInputAudioTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"
	TypeConversationItemTruncated                        = "conversation.item.truncated"
	TypeConversationItemDeleted                          = "conversation.item.deleted"

	TypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	TypeInputAudioBufferCleared       = "input_audio_buffer.cleared"
	TypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	TypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	TypeResponseCreated          = "response.created"
	TypeResponseDone             = "response.done"
	TypeResponseOutputItemAdded  = "response.output_item.added"
	TypeResponseOutputItemDone   = "response.output_item.done"
	TypeResponseContentPartAdded = "response.content_part.added"
	TypeResponseContentPartDone  = "response.content_part.done"

	// Delta events come in legacy and current-generation spellings; both
	// names resolve to identical handling.
	TypeResponseTextDelta       = "response.text.delta"
	TypeResponseTextDone        = "response.text.done"
	TypeResponseOutputTextDelta = "response.output_text.delta"
	TypeResponseOutputTextDone  = "response.output_text.done"

	TypeResponseAudioTranscriptDelta       = "response.audio_transcript.delta"
	TypeResponseAudioTranscriptDone        = "response.audio_transcript.done"
	TypeResponseOutputAudioTranscriptDelta = "response.output_audio_transcript.delta"
	TypeResponseOutputAudioTranscriptDone  = "response.output_audio_transcript.done"

	TypeResponseAudioDelta       = "response.audio.delta"
	TypeResponseAudioDone        = "response.audio.done"
	TypeResponseOutputAudioDelta = "response.output_audio.delta"
	TypeResponseOutputAudioDone  = "response.output_audio.done"

	TypeResponseFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	TypeResponseFunctionCallArgumentsDone  = "response.function_call_arguments.done"

	TypeRateLimitsUpdated = "rate_limits.updated"
)

// highFrequency lists the event names that fire at audio-frame rate. They are
// dispatched like any other event but excluded from verbose logging.
var highFrequency = map[string]struct{}{
	TypeResponseAudioDelta:                 {},
	TypeResponseOutputAudioDelta:           {},
	TypeResponseAudioTranscriptDelta:       {},
	TypeResponseOutputAudioTranscriptDelta: {},
	TypeInputAudioBufferAppend:             {},
}

// IsHighFrequency reports whether verbose logging should be suppressed for
// the given event type.
func IsHighFrequency(eventType string) bool {
	_, ok := highFrequency[eventType]
	return ok
}

// Item type and status values.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"

	ItemStatusInProgress = "in_progress"
	ItemStatusCompleted  = "completed"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
