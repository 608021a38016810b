// Package events defines the wire-level event contract for the realtime
// conversational API.
//
// Event names are grouped by sender-facing namespaces:
//
//   - session.*
//   - conversation.item.*
//   - input_audio_buffer.*
//   - response.*
//
// Before dispatch every inbound event is republished under the canonical
// server namespace (`server.<type>` plus the wildcard `server.*`) and every
// outbound event under the client namespace (`client.<type>` plus
// `client.*`). Backends that already emit `server.`-prefixed names pass
// through unchanged.
//
// Semantics used across the package:
//
//   - Delta: append-only fragment (text, transcript, base64 audio chunk, or
//     tool-call arguments) emitted in stream order for one item.
//   - Done: terminal snapshot for the stream it closes; fields overwrite.
//   - Added/Created: the two protocol-generation spellings of item
//     materialization. They are one policy under two names.
//
// The ServerEvent envelope is flat: one struct carries the union of the
// type-specific fields, mirroring the JSON the backend sends.
package events
