// Package audio provides the sample-level primitives the realtime client
// builds on: a 16-bit PCM sample buffer and the wire-encoding table.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// SampleBuffer is an ordered sequence of 16-bit little-endian PCM samples.
//
// The zero value is an empty buffer. Append and Slice return new buffers and
// never alias the receiver's backing array into long-lived state.
type SampleBuffer []int16

// DecodeBase64 decodes a base64-encoded blob of little-endian 16-bit PCM
// into a SampleBuffer. A trailing odd byte is rejected.
func DecodeBase64(encoded string) (SampleBuffer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	return FromBytes(raw)
}

// FromBytes reinterprets little-endian 16-bit PCM bytes as samples.
func FromBytes(raw []byte) (SampleBuffer, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("pcm16 payload has odd length %d", len(raw))
	}

	samples := make(SampleBuffer, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples, nil
}

// Bytes returns the little-endian 16-bit PCM encoding of the buffer.
func (b SampleBuffer) Bytes() []byte {
	raw := make([]byte, 2*len(b))
	for i, sample := range b {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(sample))
	}
	return raw
}

// EncodeBase64 returns the base64 wire form of the buffer.
func (b SampleBuffer) EncodeBase64() string {
	return base64.StdEncoding.EncodeToString(b.Bytes())
}

// Append concatenates two buffers into a freshly allocated one.
func (b SampleBuffer) Append(other SampleBuffer) SampleBuffer {
	merged := make(SampleBuffer, 0, len(b)+len(other))
	merged = append(merged, b...)
	merged = append(merged, other...)
	return merged
}

// Slice returns a copy of the samples in [from, to), clamping both bounds to
// the buffer.
func (b SampleBuffer) Slice(from, to int) SampleBuffer {
	if from < 0 {
		from = 0
	}
	if to > len(b) {
		to = len(b)
	}
	if from >= to {
		return SampleBuffer{}
	}

	out := make(SampleBuffer, to-from)
	copy(out, b[from:to])
	return out
}

// Clone returns a copy that shares no backing storage with the receiver.
func (b SampleBuffer) Clone() SampleBuffer {
	out := make(SampleBuffer, len(b))
	copy(out, b)
	return out
}

func (b SampleBuffer) Len() int {
	return len(b)
}
