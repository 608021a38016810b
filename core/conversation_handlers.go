package realtime

import (
	"fmt"
	"slices"

	"github.com/jinzhu/copier"
	"github.com/revola-ai/realtime-api-wrapper/core/audio"
	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

// ProcessEvent folds one server event into the store and reports what
// changed. The returned item is non-nil when the event touched a registered
// (or just-materialized) item; the delta is non-nil only when an incremental
// fragment was applied to an existing item.
//
// For input_audio_buffer.speech_stopped the caller may pass the running input
// audio buffer so the detected segment can be sliced out of it.
//
// Missing event_id or type, an unrecognized type, and undecodable audio
// payloads are protocol contract violations: they return an error and leave
// the store untouched. References to unknown item or response ids on
// truncate/delete/done/content-part events are benign races: they log a
// warning and change nothing.
func (c *Conversation) ProcessEvent(event events.ServerEvent, inputAudio ...audio.SampleBuffer) (*Item, *Delta, error) {
	if event.EventID == "" {
		return nil, nil, fmt.Errorf("%w (type %q)", ErrMissingEventID, event.Type)
	}
	if event.Type == "" {
		return nil, nil, ErrMissingEventType
	}

	var inputBuffer audio.SampleBuffer
	if len(inputAudio) > 0 {
		inputBuffer = inputAudio[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case events.TypeConversationItemCreated, events.TypeConversationItemAdded:
		return c.handleItemCreated(event)
	case events.TypeConversationItemDone:
		return c.handleItemDone(event)
	case events.TypeConversationItemTruncated:
		return c.handleItemTruncated(event)
	case events.TypeConversationItemDeleted:
		return c.handleItemDeleted(event)
	case events.TypeConversationItemInputAudioTranscriptionCompleted:
		return c.handleInputAudioTranscriptionCompleted(event)
	case events.TypeInputAudioBufferSpeechStarted:
		return c.handleSpeechStarted(event)
	case events.TypeInputAudioBufferSpeechStopped:
		return c.handleSpeechStopped(event, inputBuffer)
	case events.TypeResponseCreated:
		return c.handleResponseCreated(event)
	case events.TypeResponseOutputItemAdded:
		return c.handleOutputItemAdded(event)
	case events.TypeResponseOutputItemDone:
		return c.handleOutputItemDone(event)
	case events.TypeResponseContentPartAdded:
		return c.handleContentPartAdded(event)
	case events.TypeResponseTextDelta, events.TypeResponseOutputTextDelta:
		return c.handleTextDelta(event)
	case events.TypeResponseAudioTranscriptDelta, events.TypeResponseOutputAudioTranscriptDelta:
		return c.handleAudioTranscriptDelta(event)
	case events.TypeResponseAudioDelta, events.TypeResponseOutputAudioDelta:
		return c.handleAudioDelta(event)
	case events.TypeResponseFunctionCallArgumentsDelta:
		return c.handleFunctionCallArgumentsDelta(event)
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
}

// materialize registers a deep copy of the wire item, initializes its
// formatted projection, and drains every pending buffer queued under its id.
// Re-materializing an already-registered id leaves the registered item
// untouched; the fresh copy is still populated and returned.
func (c *Conversation) materialize(wire *events.Item) (*Item, error) {
	item := &Item{}
	if err := copier.CopyWithOption(&item.Item, wire, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to copy item payload: %w", err)
	}

	if _, registered := c.itemLookup[item.ID]; !registered {
		c.itemLookup[item.ID] = item
		c.items = append(c.items, item)
	}

	item.Formatted = Formatted{Audio: audio.SampleBuffer{}}

	if segment, ok := c.queuedSpeech[item.ID]; ok {
		item.Formatted.Audio = segment.Audio
		delete(c.queuedSpeech, item.ID)
	}

	for _, part := range item.Content {
		if part.Type == "text" || part.Type == "input_text" {
			if part.Text != nil {
				item.Formatted.Text += *part.Text
			}
		}
	}

	fragment := c.queuedFragments[item.ID]
	if fragment != nil {
		item.Formatted.Text += fragment.Text
		if fragment.Transcript != "" {
			item.Formatted.Transcript = fragment.Transcript
		}
		delete(c.queuedFragments, item.ID)
	}

	switch item.Type {
	case events.ItemTypeMessage:
		if item.Role == events.RoleUser {
			item.Status = events.ItemStatusCompleted
			if c.queuedInputAudio != nil {
				item.Formatted.Audio = c.queuedInputAudio
				c.queuedInputAudio = nil
			}
		} else {
			item.Status = events.ItemStatusInProgress
		}
	case events.ItemTypeFunctionCall:
		item.Formatted.Tool = &FormattedTool{
			Type:      "function",
			Name:      item.Name,
			CallID:    item.CallID,
			Arguments: item.Arguments,
		}
		if fragment != nil && fragment.Arguments != "" {
			item.Formatted.Tool.Arguments += fragment.Arguments
			item.Arguments += fragment.Arguments
		}
		item.Status = events.ItemStatusInProgress
	case events.ItemTypeFunctionCallOutput:
		item.Status = events.ItemStatusCompleted
		item.Formatted.Output = item.Output
	}

	return item, nil
}

func (c *Conversation) handleItemCreated(event events.ServerEvent) (*Item, *Delta, error) {
	if event.Item == nil {
		c.logger.Warn("item creation event without item payload", "event_id", event.EventID)
		return nil, nil, nil
	}

	item, err := c.materialize(event.Item)
	if err != nil {
		return nil, nil, err
	}
	return item, nil, nil
}

func (c *Conversation) handleItemDone(event events.ServerEvent) (*Item, *Delta, error) {
	if event.Item == nil {
		c.logger.Warn("item done event without item payload", "event_id", event.EventID)
		return nil, nil, nil
	}

	item, registered := c.itemLookup[event.Item.ID]
	if !registered {
		// Done before created: route through the same materialization as
		// item.created so the formatted projection is derived consistently.
		return c.handleItemCreated(event)
	}

	c.mergeItemFields(item, event.Item)
	return item, nil, nil
}

// mergeItemFields overwrites the registered item's fields with the final
// payload, last write wins. Status only moves forward and the formatted
// projection is not re-derived.
func (c *Conversation) mergeItemFields(item *Item, wire *events.Item) {
	if wire.Type != "" {
		item.Type = wire.Type
	}
	if wire.Role != "" {
		item.Role = wire.Role
	}
	if wire.Status != "" && item.Status != events.ItemStatusCompleted {
		item.Status = wire.Status
	}
	if wire.Content != nil {
		content := make([]events.ContentPart, 0, len(wire.Content))
		if err := copier.CopyWithOption(&content, wire.Content, copier.Option{DeepCopy: true}); err == nil {
			item.Content = content
		}
	}
	if wire.CallID != "" {
		item.CallID = wire.CallID
	}
	if wire.Name != "" {
		item.Name = wire.Name
	}
	if wire.Arguments != "" {
		item.Arguments = wire.Arguments
	}
	if wire.Output != "" {
		item.Output = wire.Output
		item.Formatted.Output = wire.Output
	}
}

func (c *Conversation) handleItemTruncated(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		c.logger.Warn("truncation for unknown item", "item_id", event.ItemID)
		return nil, nil, nil
	}

	endIndex := c.encoding.SampleIndex(event.AudioEndMs)
	item.Formatted.Transcript = ""
	if endIndex < item.Formatted.Audio.Len() {
		item.Formatted.Audio = item.Formatted.Audio.Slice(0, endIndex)
	}
	return item, nil, nil
}

func (c *Conversation) handleItemDeleted(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		c.logger.Warn("deletion for unknown item", "item_id", event.ItemID)
		return nil, nil, nil
	}

	delete(c.itemLookup, event.ItemID)
	if index := slices.Index(c.items, item); index >= 0 {
		c.items = append(c.items[:index], c.items[index+1:]...)
	}
	return item, nil, nil
}

func (c *Conversation) handleInputAudioTranscriptionCompleted(event events.ServerEvent) (*Item, *Delta, error) {
	transcript := event.Transcript
	if transcript == "" {
		// A single space marks "transcription occurred but was empty".
		transcript = " "
	}

	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		fragment := c.fragmentFor(event.ItemID)
		fragment.Transcript = transcript
		return nil, nil, nil
	}

	if event.ContentIndex >= 0 && event.ContentIndex < len(item.Content) {
		item.Content[event.ContentIndex].Transcript = &transcript
	}
	item.Formatted.Transcript = transcript
	return item, &Delta{Transcript: transcript}, nil
}

func (c *Conversation) handleSpeechStarted(event events.ServerEvent) (*Item, *Delta, error) {
	// Speech detection precedes item existence by protocol design; the
	// segment is always queued under the future item id.
	c.queuedSpeech[event.ItemID] = &pendingSpeechSegment{AudioStartMs: event.AudioStartMs}
	return nil, nil, nil
}

func (c *Conversation) handleSpeechStopped(event events.ServerEvent, inputBuffer audio.SampleBuffer) (*Item, *Delta, error) {
	segment, ok := c.queuedSpeech[event.ItemID]
	if !ok {
		// Stop without a start; fall back to a zero-length window.
		segment = &pendingSpeechSegment{AudioStartMs: event.AudioEndMs}
		c.queuedSpeech[event.ItemID] = segment
	}

	endMs := event.AudioEndMs
	segment.AudioEndMs = &endMs
	if inputBuffer != nil {
		startIndex := c.encoding.SampleIndex(segment.AudioStartMs)
		endIndex := c.encoding.SampleIndex(endMs)
		segment.Audio = inputBuffer.Slice(startIndex, endIndex)
	}
	return nil, nil, nil
}

func (c *Conversation) handleResponseCreated(event events.ServerEvent) (*Item, *Delta, error) {
	if event.Response == nil {
		c.logger.Warn("response created event without response payload", "event_id", event.EventID)
		return nil, nil, nil
	}

	if _, registered := c.responseLookup[event.Response.ID]; !registered {
		response := &Response{ID: event.Response.ID, Status: event.Response.Status}
		c.responseLookup[response.ID] = response
		c.responses = append(c.responses, response)
	}
	return nil, nil, nil
}

func (c *Conversation) handleOutputItemAdded(event events.ServerEvent) (*Item, *Delta, error) {
	response, registered := c.responseLookup[event.ResponseID]
	if !registered {
		c.logger.Warn("output item for unknown response", "response_id", event.ResponseID)
		return nil, nil, nil
	}
	if event.Item == nil {
		c.logger.Warn("output item event without item payload", "event_id", event.EventID)
		return nil, nil, nil
	}

	item, err := c.materialize(event.Item)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Contains(response.Output, item.ID) {
		response.Output = append(response.Output, item.ID)
	}
	return item, nil, nil
}

func (c *Conversation) handleOutputItemDone(event events.ServerEvent) (*Item, *Delta, error) {
	if event.Item == nil {
		c.logger.Warn("output item done event without item payload", "event_id", event.EventID)
		return nil, nil, nil
	}

	item, registered := c.itemLookup[event.Item.ID]
	if !registered {
		c.logger.Warn("output item done for unknown item", "item_id", event.Item.ID)
		return nil, nil, nil
	}

	if event.Item.Status != "" && item.Status != events.ItemStatusCompleted {
		item.Status = event.Item.Status
	}
	return item, nil, nil
}

func (c *Conversation) handleContentPartAdded(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		c.logger.Warn("content part for unknown item", "item_id", event.ItemID)
		return nil, nil, nil
	}
	if event.Part != nil {
		item.Content = append(item.Content, *event.Part)
	}
	return item, nil, nil
}

func (c *Conversation) handleTextDelta(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		fragment := c.fragmentFor(event.ItemID)
		fragment.Text += event.Delta
		return nil, nil, nil
	}

	if event.ContentIndex >= 0 && event.ContentIndex < len(item.Content) {
		part := &item.Content[event.ContentIndex]
		if part.Text == nil {
			empty := ""
			part.Text = &empty
		}
		*part.Text += event.Delta
	}
	item.Formatted.Text += event.Delta
	return item, &Delta{Text: event.Delta}, nil
}

func (c *Conversation) handleAudioTranscriptDelta(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		fragment := c.fragmentFor(event.ItemID)
		fragment.Transcript += event.Delta
		return nil, nil, nil
	}

	if event.ContentIndex >= 0 && event.ContentIndex < len(item.Content) {
		part := &item.Content[event.ContentIndex]
		if part.Transcript == nil {
			empty := ""
			part.Transcript = &empty
		}
		*part.Transcript += event.Delta
	}
	item.Formatted.Transcript += event.Delta
	return item, &Delta{Transcript: event.Delta}, nil
}

func (c *Conversation) handleAudioDelta(event events.ServerEvent) (*Item, *Delta, error) {
	chunk, err := audio.DecodeBase64(event.Delta)
	if err != nil {
		return nil, nil, fmt.Errorf("audio delta for item %q: %w", event.ItemID, err)
	}

	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		segment, ok := c.queuedSpeech[event.ItemID]
		if !ok {
			segment = &pendingSpeechSegment{}
			c.queuedSpeech[event.ItemID] = segment
		}
		segment.Audio = segment.Audio.Append(chunk)
		return nil, nil, nil
	}

	item.Formatted.Audio = item.Formatted.Audio.Append(chunk)
	return item, &Delta{Audio: chunk}, nil
}

func (c *Conversation) handleFunctionCallArgumentsDelta(event events.ServerEvent) (*Item, *Delta, error) {
	item, registered := c.itemLookup[event.ItemID]
	if !registered {
		fragment := c.fragmentFor(event.ItemID)
		fragment.Arguments += event.Delta
		return nil, nil, nil
	}

	item.Arguments += event.Delta
	if item.Formatted.Tool != nil {
		item.Formatted.Tool.Arguments += event.Delta
	}
	return item, &Delta{Arguments: event.Delta}, nil
}

func (c *Conversation) fragmentFor(itemID string) *pendingFragment {
	fragment, ok := c.queuedFragments[itemID]
	if !ok {
		fragment = &pendingFragment{}
		c.queuedFragments[itemID] = fragment
	}
	return fragment
}
