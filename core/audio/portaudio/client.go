// Package portaudio provides a blocking-stream microphone/speaker client for
// the realtime API, exchanging 16-bit PCM at the realtime default rate.
package portaudio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
)

type Client struct {
	bufferSize      int
	stream          *portaudio.Stream
	leftoverSamples audio.SampleBuffer

	in  []int16
	out []int16
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// Stream reads microphone frames until the context ends, handing each frame
// to onAudio.
func (c *Client) Stream(ctx context.Context, onAudio func(samples audio.SampleBuffer)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				return fmt.Errorf("failed to read from portaudio stream: %w", err)
			}

			frame := make(audio.SampleBuffer, len(c.in))
			copy(frame, c.in)
			onAudio(frame)
		}
	}
}

// Play writes samples to the speaker in stream-sized chunks, holding back a
// partial trailing chunk until more audio arrives.
func (c *Client) Play(samples audio.SampleBuffer) error {
	pending := c.leftoverSamples.Append(samples)

	for len(pending) >= c.bufferSize {
		copy(c.out, pending[:c.bufferSize])
		pending = pending[c.bufferSize:]
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	}

	c.leftoverSamples = pending.Clone()
	return nil
}

// ClearBuffer drops any audio not yet written to the device.
func (c *Client) ClearBuffer() {
	c.leftoverSamples = nil
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
