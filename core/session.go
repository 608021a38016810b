package realtime

import (
	"github.com/revola-ai/realtime-api-wrapper/core/audio"
	"github.com/revola-ai/realtime-api-wrapper/internal/utils"
)

// SessionConfig is the client-side view of the session parameters negotiated
// through session.update.
type SessionConfig struct {
	Modalities              []string             `json:"modalities,omitempty"`
	Instructions            string               `json:"instructions,omitempty"`
	Voice                   string               `json:"voice,omitempty"`
	InputAudioFormat        string               `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string               `json:"output_audio_format,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetection       `json:"turn_detection,omitempty"`
	Tools                   []ToolDefinition     `json:"tools,omitempty"`
	ToolChoice              any                  `json:"tool_choice,omitempty"`
	Temperature             *float64             `json:"temperature,omitempty"`
	MaxResponseOutputTokens *int                 `json:"max_response_output_tokens,omitempty"`
}

// TranscriptionConfig enables input audio transcription.
type TranscriptionConfig struct {
	Model string `json:"model,omitempty"`
}

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		Modalities:              []string{"text", "audio"},
		Instructions:            "",
		Voice:                   "verse",
		InputAudioFormat:        audio.DefaultFormat,
		OutputAudioFormat:       audio.DefaultFormat,
		TurnDetection:           &TurnDetection{Type: "server_vad"},
		Temperature:             utils.Ptr(0.8),
		MaxResponseOutputTokens: utils.Ptr(4096),
	}
}

// SessionOption mutates the session configuration before a session.update.
type SessionOption func(*SessionConfig)

func WithInstructions(instructions string) SessionOption {
	return func(s *SessionConfig) { s.Instructions = instructions }
}

func WithVoice(voice string) SessionOption {
	return func(s *SessionConfig) { s.Voice = voice }
}

func WithModalities(modalities ...string) SessionOption {
	return func(s *SessionConfig) { s.Modalities = modalities }
}

func WithInputAudioFormat(format string) SessionOption {
	return func(s *SessionConfig) { s.InputAudioFormat = format }
}

func WithOutputAudioFormat(format string) SessionOption {
	return func(s *SessionConfig) { s.OutputAudioFormat = format }
}

func WithInputAudioTranscription(model string) SessionOption {
	return func(s *SessionConfig) { s.InputAudioTranscription = &TranscriptionConfig{Model: model} }
}

// WithTurnDetection sets the VAD configuration; pass nil to disable server
// VAD and drive turns manually.
func WithTurnDetection(detection *TurnDetection) SessionOption {
	return func(s *SessionConfig) { s.TurnDetection = detection }
}

func WithTemperature(temperature float64) SessionOption {
	return func(s *SessionConfig) { s.Temperature = utils.Ptr(temperature) }
}

func WithMaxResponseOutputTokens(tokens int) SessionOption {
	return func(s *SessionConfig) { s.MaxResponseOutputTokens = utils.Ptr(tokens) }
}

func WithToolChoice(choice any) SessionOption {
	return func(s *SessionConfig) { s.ToolChoice = choice }
}
