// Package audio is the loading collaborator for the rhythm engine: it turns
// files into decoded mono sample buffers. The analysis packages never touch
// files themselves.
package audio

// DefaultSampleRate is the analysis rate the decoder targets. 22.05 kHz keeps
// plenty of rhythmic detail while halving the work of every downstream FFT.
const DefaultSampleRate = 22050

// Clip is a decoded mono audio buffer.
type Clip struct {
	Path       string
	Samples    []float32 // normalized to [-1, 1]
	SampleRate int       // Hz
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}
