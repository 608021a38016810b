package realtime

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
	"github.com/revola-ai/realtime-api-wrapper/core/events"
)

func newTestConversation(t *testing.T) *Conversation {
	t.Helper()
	return NewConversation(WithConversationLogger(slog.New(slog.DiscardHandler)))
}

func userMessageEvent(eventType, itemID, text string) events.ServerEvent {
	return events.ServerEvent{
		Type:    eventType,
		EventID: "evt_" + itemID,
		Item: &events.Item{
			ID:   itemID,
			Type: events.ItemTypeMessage,
			Role: events.RoleUser,
			Content: []events.ContentPart{
				{Type: "input_text", Text: &text},
			},
		},
	}
}

func assistantMessageEvent(eventType, itemID string) events.ServerEvent {
	return events.ServerEvent{
		Type:    eventType,
		EventID: "evt_" + itemID,
		Item: &events.Item{
			ID:      itemID,
			Type:    events.ItemTypeMessage,
			Role:    events.RoleAssistant,
			Content: []events.ContentPart{{Type: "audio"}},
		},
	}
}

func mustProcess(t *testing.T, c *Conversation, event events.ServerEvent, inputAudio ...audio.SampleBuffer) (*Item, *Delta) {
	t.Helper()
	item, delta, err := c.ProcessEvent(event, inputAudio...)
	if err != nil {
		t.Fatalf("ProcessEvent(%s): unexpected error: %v", event.Type, err)
	}
	return item, delta
}

func TestProcessEventValidation(t *testing.T) {
	tests := []struct {
		name    string
		event   events.ServerEvent
		wantErr error
	}{
		{
			name:    "missing event id",
			event:   events.ServerEvent{Type: events.TypeConversationItemCreated},
			wantErr: ErrMissingEventID,
		},
		{
			name:    "missing type",
			event:   events.ServerEvent{EventID: "evt_1"},
			wantErr: ErrMissingEventType,
		},
		{
			name:    "unknown type",
			event:   events.ServerEvent{EventID: "evt_1", Type: "session.updated.v7"},
			wantErr: ErrUnknownEventType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conversation := newTestConversation(t)
			mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", "hi"))

			item, delta, err := conversation.ProcessEvent(tt.event)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if item != nil || delta != nil {
				t.Fatalf("expected nil results on error, got item=%v delta=%v", item, delta)
			}
			if got := len(conversation.Items()); got != 1 {
				t.Fatalf("store changed on rejected event: %d items", got)
			}
		})
	}
}

func TestItemCreated(t *testing.T) {
	t.Run("user message completes with text", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, delta := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", "hello there"))

		if delta != nil {
			t.Fatalf("creation should not produce a delta, got %+v", delta)
		}
		if item == nil {
			t.Fatal("expected materialized item")
		}
		if item.Status != events.ItemStatusCompleted {
			t.Errorf("user message status = %q, want completed", item.Status)
		}
		if item.Formatted.Text != "hello there" {
			t.Errorf("formatted text = %q", item.Formatted.Text)
		}
		if conversation.Item("item_1") != item {
			t.Error("item not registered in lookup")
		}
	})

	t.Run("assistant message starts in progress", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_2"))

		if item.Status != events.ItemStatusInProgress {
			t.Errorf("assistant message status = %q, want in_progress", item.Status)
		}
	})

	t.Run("added alias behaves like created", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemAdded, "item_3", "aliased"))

		if item == nil || item.Formatted.Text != "aliased" {
			t.Fatalf("alias did not materialize item: %+v", item)
		}
		if conversation.Item("item_3") == nil {
			t.Error("alias did not register item")
		}
	})

	t.Run("duplicate creation leaves store untouched", func(t *testing.T) {
		conversation := newTestConversation(t)
		first, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_4", "original"))
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_d1", Type: events.TypeResponseTextDelta,
			ItemID: "item_4", Delta: " plus delta",
		})

		second, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_4", "replayed"))

		if second == nil || second.Formatted.Text != "replayed" {
			t.Fatalf("replay should return a populated copy, got %+v", second)
		}
		if got := conversation.Item("item_4"); got != first {
			t.Error("replay replaced the registered item")
		}
		if first.Formatted.Text != "original plus delta" {
			t.Errorf("registered item mutated by replay: %q", first.Formatted.Text)
		}
		if got := len(conversation.Items()); got != 1 {
			t.Errorf("replay duplicated the ordered sequence: %d items", got)
		}
	})
}

func TestTextDeltas(t *testing.T) {
	t.Run("known item accumulates and reports delta", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_p1", Type: events.TypeResponseContentPartAdded,
			ItemID: "item_1", Part: &events.ContentPart{Type: "text"},
		})

		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_t1", Type: events.TypeResponseTextDelta,
			ItemID: "item_1", ContentIndex: 1, Delta: "Hel",
		})
		if delta == nil || delta.Text != "Hel" {
			t.Fatalf("delta = %+v, want text fragment", delta)
		}

		_, delta = mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_t2", Type: events.TypeResponseOutputTextDelta,
			ItemID: "item_1", ContentIndex: 1, Delta: "lo",
		})
		if delta == nil || delta.Text != "lo" {
			t.Fatalf("alias delta = %+v", delta)
		}
		if item.Formatted.Text != "Hello" {
			t.Errorf("formatted text = %q, want Hello", item.Formatted.Text)
		}
		if part := item.Content[1]; part.Text == nil || *part.Text != "Hello" {
			t.Errorf("content part not updated: %+v", part)
		}
	})

	t.Run("deltas before creation drain at materialization", func(t *testing.T) {
		conversation := newTestConversation(t)

		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_t1", Type: events.TypeResponseTextDelta,
			ItemID: "item_2", Delta: "early ",
		})
		if item != nil || delta != nil {
			t.Fatalf("pre-creation delta must be silent, got item=%v delta=%v", item, delta)
		}
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_t2", Type: events.TypeResponseTextDelta,
			ItemID: "item_2", Delta: "bird",
		})

		created, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_2"))
		if created.Formatted.Text != "early bird" {
			t.Errorf("queued text not drained: %q", created.Formatted.Text)
		}

		// Drained exactly once: a replayed creation sees no leftover fragment.
		replay, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_2"))
		if replay.Formatted.Text != "" {
			t.Errorf("fragment drained twice: %q", replay.Formatted.Text)
		}
	})
}

func TestTranscriptDeltas(t *testing.T) {
	conversation := newTestConversation(t)
	mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))

	item, delta := mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_1", Type: events.TypeResponseAudioTranscriptDelta,
		ItemID: "item_1", ContentIndex: 0, Delta: "Good ",
	})
	if delta == nil || delta.Transcript != "Good " {
		t.Fatalf("delta = %+v", delta)
	}
	mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_2", Type: events.TypeResponseOutputAudioTranscriptDelta,
		ItemID: "item_1", ContentIndex: 0, Delta: "morning",
	})

	if item.Formatted.Transcript != "Good morning" {
		t.Errorf("formatted transcript = %q", item.Formatted.Transcript)
	}
	if part := item.Content[0]; part.Transcript == nil || *part.Transcript != "Good morning" {
		t.Errorf("content part transcript not updated: %+v", part)
	}
}

func TestAudioDeltas(t *testing.T) {
	chunkOne := audio.SampleBuffer{1, 2, 3}
	chunkTwo := audio.SampleBuffer{4, 5}

	t.Run("delta carries only the new chunk", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))

		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeResponseAudioDelta,
			ItemID: "item_1", Delta: chunkOne.EncodeBase64(),
		})
		if delta == nil || delta.Audio.Len() != 3 {
			t.Fatalf("delta = %+v, want 3 samples", delta)
		}

		_, delta = mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_2", Type: events.TypeResponseOutputAudioDelta,
			ItemID: "item_1", Delta: chunkTwo.EncodeBase64(),
		})
		if delta.Audio.Len() != 2 {
			t.Errorf("second delta carries %d samples, want only the new 2", delta.Audio.Len())
		}
		if item.Formatted.Audio.Len() != 5 {
			t.Errorf("accumulated audio = %d samples, want 5", item.Formatted.Audio.Len())
		}
	})

	t.Run("undecodable payload fails loud", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))

		_, _, err := conversation.ProcessEvent(events.ServerEvent{
			EventID: "evt_bad", Type: events.TypeResponseAudioDelta,
			ItemID: "item_1", Delta: "not base64!",
		})
		if err == nil {
			t.Fatal("expected decode error")
		}
		if conversation.Item("item_1").Formatted.Audio.Len() != 0 {
			t.Error("failed decode mutated stored audio")
		}
	})

	t.Run("audio before creation drains at materialization", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeResponseAudioDelta,
			ItemID: "item_1", Delta: chunkOne.EncodeBase64(),
		})

		item, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))
		if item.Formatted.Audio.Len() != 3 {
			t.Errorf("queued audio not drained: %d samples", item.Formatted.Audio.Len())
		}
	})
}

func TestInputAudioTranscriptionCompleted(t *testing.T) {
	t.Run("known item", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))

		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemInputAudioTranscriptionCompleted,
			ItemID: "item_1", ContentIndex: 0, Transcript: "what is up",
		})
		if delta == nil || delta.Transcript != "what is up" {
			t.Fatalf("delta = %+v", delta)
		}
		if item.Formatted.Transcript != "what is up" {
			t.Errorf("formatted transcript = %q", item.Formatted.Transcript)
		}
		if part := item.Content[0]; part.Transcript == nil || *part.Transcript != "what is up" {
			t.Errorf("content part transcript not set: %+v", part)
		}
	})

	t.Run("empty transcript becomes a single space", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))

		item, _ := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemInputAudioTranscriptionCompleted,
			ItemID: "item_1", ContentIndex: 0,
		})
		if item.Formatted.Transcript != " " {
			t.Errorf("empty transcript stored as %q, want a single space", item.Formatted.Transcript)
		}
	})

	t.Run("unknown item queues the transcript", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemInputAudioTranscriptionCompleted,
			ItemID: "item_1", Transcript: "buffered",
		})
		if item != nil || delta != nil {
			t.Fatalf("expected silent queueing, got item=%v delta=%v", item, delta)
		}

		created, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))
		if created.Formatted.Transcript != "buffered" {
			t.Errorf("queued transcript not drained: %q", created.Formatted.Transcript)
		}
	})
}

func TestSpeechSegments(t *testing.T) {
	// 24 kHz default: one millisecond is 24 samples.
	inputBuffer := make(audio.SampleBuffer, 24*100)
	for i := range inputBuffer {
		inputBuffer[i] = int16(i)
	}

	t.Run("stopped slices the detected window", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeInputAudioBufferSpeechStarted,
			ItemID: "item_1", AudioStartMs: 10,
		})
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_2", Type: events.TypeInputAudioBufferSpeechStopped,
			ItemID: "item_1", AudioEndMs: 60,
		}, inputBuffer)

		item, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))
		if got := item.Formatted.Audio.Len(); got != 24*50 {
			t.Fatalf("segment length = %d samples, want %d", got, 24*50)
		}
		if item.Formatted.Audio[0] != int16(24*10) {
			t.Errorf("segment starts at sample %d, want %d", item.Formatted.Audio[0], 24*10)
		}
	})

	t.Run("stopped without started is a zero-length window", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeInputAudioBufferSpeechStopped,
			ItemID: "item_1", AudioEndMs: 40,
		}, inputBuffer)

		item, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))
		if got := item.Formatted.Audio.Len(); got != 0 {
			t.Errorf("segment length = %d samples, want 0", got)
		}
	})
}

func TestItemTruncated(t *testing.T) {
	conversation := newTestConversation(t)
	item, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))
	item.Formatted.Audio = make(audio.SampleBuffer, 24000)
	item.Formatted.Transcript = "full sentence"

	t.Run("cuts audio and clears transcript", func(t *testing.T) {
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemTruncated,
			ItemID: "item_1", AudioEndMs: 500,
		})
		if got := item.Formatted.Audio.Len(); got != 12000 {
			t.Errorf("audio length = %d, want 12000 samples for 500ms at 24kHz", got)
		}
		if item.Formatted.Transcript != "" {
			t.Errorf("transcript not cleared: %q", item.Formatted.Transcript)
		}
	})

	t.Run("cut beyond buffer leaves audio alone", func(t *testing.T) {
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_2", Type: events.TypeConversationItemTruncated,
			ItemID: "item_1", AudioEndMs: 10_000,
		})
		if got := item.Formatted.Audio.Len(); got != 12000 {
			t.Errorf("audio length = %d, want unchanged 12000", got)
		}
	})

	t.Run("unknown item is a logged no-op", func(t *testing.T) {
		item, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_3", Type: events.TypeConversationItemTruncated,
			ItemID: "missing", AudioEndMs: 100,
		})
		if item != nil || delta != nil {
			t.Errorf("expected no-op, got item=%v delta=%v", item, delta)
		}
	})
}

func TestItemDeleted(t *testing.T) {
	conversation := newTestConversation(t)
	mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", "one"))
	mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_2", "two"))

	removed, _ := mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_1", Type: events.TypeConversationItemDeleted, ItemID: "item_1",
	})
	if removed == nil || removed.ID != "item_1" {
		t.Fatalf("expected removed item back, got %+v", removed)
	}
	if conversation.Item("item_1") != nil {
		t.Error("deleted item still resolvable")
	}
	items := conversation.Items()
	if len(items) != 1 || items[0].ID != "item_2" {
		t.Errorf("ordered sequence after delete = %v", items)
	}

	item, delta := mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_2", Type: events.TypeConversationItemDeleted, ItemID: "item_1",
	})
	if item != nil || delta != nil {
		t.Errorf("repeat delete should be a no-op, got item=%v delta=%v", item, delta)
	}
}

func TestItemDone(t *testing.T) {
	t.Run("merges final fields, status moves forward only", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_1"))

		text := "final text"
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemDone,
			Item: &events.Item{
				ID:     "item_1",
				Status: events.ItemStatusCompleted,
				Content: []events.ContentPart{
					{Type: "text", Text: &text},
				},
			},
		})
		if item.Status != events.ItemStatusCompleted {
			t.Errorf("status = %q, want completed", item.Status)
		}
		if len(item.Content) != 1 || *item.Content[0].Text != "final text" {
			t.Errorf("content not merged: %+v", item.Content)
		}

		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_2", Type: events.TypeConversationItemDone,
			Item:    &events.Item{ID: "item_1", Status: events.ItemStatusInProgress},
		})
		if item.Status != events.ItemStatusCompleted {
			t.Errorf("status regressed to %q", item.Status)
		}
	})

	t.Run("done before created materializes", func(t *testing.T) {
		conversation := newTestConversation(t)
		event := userMessageEvent(events.TypeConversationItemDone, "item_1", "straight to done")
		item, _ := mustProcess(t, conversation, event)

		if item == nil || item.Formatted.Text != "straight to done" {
			t.Fatalf("done-before-created did not materialize: %+v", item)
		}
		if conversation.Item("item_1") == nil {
			t.Error("item not registered")
		}
	})
}

func TestResponses(t *testing.T) {
	t.Run("output item joins its response once", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeResponseCreated,
			Response: &events.Response{ID: "resp_1", Status: "in_progress"},
		})

		event := assistantMessageEvent(events.TypeResponseOutputItemAdded, "item_1")
		event.ResponseID = "resp_1"
		item, _ := mustProcess(t, conversation, event)
		if item == nil {
			t.Fatal("output item not materialized")
		}
		mustProcess(t, conversation, event)

		response := conversation.Response("resp_1")
		if response == nil {
			t.Fatal("response not registered")
		}
		if len(response.Output) != 1 || response.Output[0] != "item_1" {
			t.Errorf("response output = %v, want single item_1", response.Output)
		}
	})

	t.Run("output item for unknown response is a logged no-op", func(t *testing.T) {
		conversation := newTestConversation(t)
		event := assistantMessageEvent(events.TypeResponseOutputItemAdded, "item_1")
		event.ResponseID = "resp_missing"

		item, delta := mustProcess(t, conversation, event)
		if item != nil || delta != nil {
			t.Errorf("expected no-op, got item=%v delta=%v", item, delta)
		}
		if conversation.Item("item_1") != nil {
			t.Error("item materialized despite unknown response")
		}
	})

	t.Run("output item done completes the item", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeResponseCreated,
			Response: &events.Response{ID: "resp_1"},
		})
		added := assistantMessageEvent(events.TypeResponseOutputItemAdded, "item_1")
		added.ResponseID = "resp_1"
		item, _ := mustProcess(t, conversation, added)

		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_2", Type: events.TypeResponseOutputItemDone,
			ResponseID: "resp_1",
			Item:       &events.Item{ID: "item_1", Status: events.ItemStatusCompleted},
		})
		if item.Status != events.ItemStatusCompleted {
			t.Errorf("status = %q, want completed", item.Status)
		}
	})
}

func TestFunctionCalls(t *testing.T) {
	callEvent := events.ServerEvent{
		EventID: "evt_c1", Type: events.TypeConversationItemCreated,
		Item: &events.Item{
			ID:     "item_1",
			Type:   events.ItemTypeFunctionCall,
			CallID: "call_1",
			Name:   "get_weather",
		},
	}

	t.Run("arguments stream after creation", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, _ := mustProcess(t, conversation, callEvent)
		if item.Formatted.Tool == nil || item.Formatted.Tool.Name != "get_weather" {
			t.Fatalf("tool projection = %+v", item.Formatted.Tool)
		}

		_, delta := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_a1", Type: events.TypeResponseFunctionCallArgumentsDelta,
			ItemID: "item_1", Delta: `{"city":`,
		})
		if delta == nil || delta.Arguments != `{"city":` {
			t.Fatalf("delta = %+v", delta)
		}
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_a2", Type: events.TypeResponseFunctionCallArgumentsDelta,
			ItemID: "item_1", Delta: `"Oslo"}`,
		})

		if item.Formatted.Tool.Arguments != `{"city":"Oslo"}` {
			t.Errorf("tool arguments = %q", item.Formatted.Tool.Arguments)
		}
		if item.Arguments != `{"city":"Oslo"}` {
			t.Errorf("item arguments = %q", item.Arguments)
		}
	})

	t.Run("arguments stream before creation", func(t *testing.T) {
		conversation := newTestConversation(t)
		mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_a1", Type: events.TypeResponseFunctionCallArgumentsDelta,
			ItemID: "item_1", Delta: `{"city":"Oslo"}`,
		})

		item, _ := mustProcess(t, conversation, callEvent)
		if item.Formatted.Tool.Arguments != `{"city":"Oslo"}` {
			t.Errorf("queued arguments not drained: %q", item.Formatted.Tool.Arguments)
		}
		if item.Arguments != `{"city":"Oslo"}` {
			t.Errorf("queued arguments missing from item: %q", item.Arguments)
		}
	})

	t.Run("call output completes immediately", func(t *testing.T) {
		conversation := newTestConversation(t)
		item, _ := mustProcess(t, conversation, events.ServerEvent{
			EventID: "evt_1", Type: events.TypeConversationItemCreated,
			Item: &events.Item{
				ID:     "item_2",
				Type:   events.ItemTypeFunctionCallOutput,
				CallID: "call_1",
				Output: `{"temperature":12}`,
			},
		})
		if item.Status != events.ItemStatusCompleted {
			t.Errorf("status = %q, want completed", item.Status)
		}
		if item.Formatted.Output != `{"temperature":12}` {
			t.Errorf("formatted output = %q", item.Formatted.Output)
		}
	})
}

func TestQueueInputAudio(t *testing.T) {
	conversation := newTestConversation(t)
	conversation.QueueInputAudio(audio.SampleBuffer{9, 9, 9})

	item, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))
	if item.Formatted.Audio.Len() != 3 {
		t.Fatalf("queued input audio not attached: %d samples", item.Formatted.Audio.Len())
	}

	next, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_2", ""))
	if next.Formatted.Audio.Len() != 0 {
		t.Error("queued input audio attached twice")
	}
}

func TestClear(t *testing.T) {
	conversation := newTestConversation(t)
	mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", "hi"))
	mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_1", Type: events.TypeResponseCreated,
		Response: &events.Response{ID: "resp_1"},
	})
	mustProcess(t, conversation, events.ServerEvent{
		EventID: "evt_2", Type: events.TypeResponseTextDelta,
		ItemID: "item_pending", Delta: "buffered",
	})
	conversation.QueueInputAudio(audio.SampleBuffer{1})

	conversation.Clear()

	if len(conversation.Items()) != 0 || len(conversation.Responses()) != 0 {
		t.Error("clear left items or responses behind")
	}
	item, _ := mustProcess(t, conversation, assistantMessageEvent(events.TypeConversationItemCreated, "item_pending"))
	if item.Formatted.Text != "" {
		t.Errorf("pending fragment survived clear: %q", item.Formatted.Text)
	}
	user, _ := mustProcess(t, conversation, userMessageEvent(events.TypeConversationItemCreated, "item_1", ""))
	if user.Formatted.Audio.Len() != 0 {
		t.Error("queued input audio survived clear")
	}
}

func TestSetAudioFormat(t *testing.T) {
	conversation := newTestConversation(t)

	if err := conversation.SetAudioFormat("g711_ulaw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := conversation.SampleRate(); got != 8000 {
		t.Errorf("sample rate = %d, want 8000", got)
	}

	if err := conversation.SetAudioFormat("opus"); err == nil {
		t.Error("expected error for unsupported encoding")
	}
	if got := conversation.SampleRate(); got != 8000 {
		t.Errorf("failed switch changed sample rate to %d", got)
	}
}
