package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/revola-ai/realtime-api-wrapper/core/audio"
)

// captureChunkMs is how much microphone audio is accumulated before a chunk
// is handed to the consumer. Sending per device period would flood the
// transport with tiny input_audio_buffer.append messages.
const captureChunkMs = 100

type captureClient struct {
	device *malgo.Device

	mu      sync.Mutex
	onAudio func(samples audio.SampleBuffer)

	// chunk accumulates samples between deliveries; only the device
	// callback goroutine touches it.
	chunk audio.SampleBuffer
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = malgo.FormatS16
	config.Capture.Channels = 1
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency

	chunkSamples := audio.DefaultSampleRate * captureChunkMs / 1000
	bytesPerFrame := malgo.SampleSizeInBytes(config.Capture.Format)

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if n == 0 || len(pInput) < n {
				return
			}
			samples, err := audio.FromBytes(pInput[:n])
			if err != nil {
				return
			}

			c.chunk = c.chunk.Append(samples)
			if c.chunk.Len() < chunkSamples {
				return
			}
			chunk := c.chunk
			c.chunk = nil

			c.mu.Lock()
			onAudio := c.onAudio
			c.mu.Unlock()
			if onAudio != nil {
				onAudio(chunk)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return nil
}

func (c *captureClient) Start(onAudio func(samples audio.SampleBuffer)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.onAudio = onAudio
	if err := c.device.Start(); err != nil {
		c.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	c.onAudio = nil
	c.chunk = nil
	return nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.onAudio = nil
	c.chunk = nil
	return nil
}
