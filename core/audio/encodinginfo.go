package audio

import "fmt"

const (
	DefaultSampleRate = 24000
	DefaultFormat     = "pcm16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

// GetEncodingInfo resolves an encoding name used on the wire to its fixed
// sample rate. Unknown names are an error, never a silent default.
func GetEncodingInfo(name string) (EncodingInfo, error) {
	switch encodingFormat(name) {
	case EncodingPCM16:
		return EncodingInfo{SampleRate: 24000, Format: EncodingPCM16}, nil
	case EncodingG711ULaw:
		return EncodingInfo{SampleRate: 8000, Format: EncodingG711ULaw}, nil
	case EncodingG711ALaw:
		return EncodingInfo{SampleRate: 8000, Format: EncodingG711ALaw}, nil
	}

	return EncodingInfo{}, fmt.Errorf("unknown audio encoding: %q", name)
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// SampleIndex converts a millisecond offset to a sample index at this
// encoding's rate, truncating towards zero.
func (e EncodingInfo) SampleIndex(ms int) int {
	return ms * e.SampleRate / 1000
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

const (
	EncodingPCM16    encodingFormat = "pcm16"
	EncodingG711ULaw encodingFormat = "g711_ulaw"
	EncodingG711ALaw encodingFormat = "g711_alaw"
)
