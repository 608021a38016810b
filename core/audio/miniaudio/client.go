// Package miniaudio provides malgo-backed microphone capture and speaker
// playback for the realtime client, exchanging 16-bit PCM at the realtime
// default rate.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
)

// Client bundles one capture and one playback device sharing a single malgo
// context.
type Client struct {
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// StartCapture begins delivering microphone frames to onAudio.
func (c *Client) StartCapture(onAudio func(samples audio.SampleBuffer)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// Play enqueues samples for the playback device.
func (c *Client) Play(samples audio.SampleBuffer) error {
	return c.playbackClient.Play(samples)
}

// ClearPlayback drops any audio not yet played, e.g. after an interruption.
func (c *Client) ClearPlayback() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
