package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
)

// ffmpegBin resolves the decoder binary, overridable for nonstandard installs.
func ffmpegBin() string {
	if p := os.Getenv("FFMPEG_PATH"); p != "" {
		return p
	}
	return "ffmpeg"
}

// DecodeFile runs FFmpeg to decode an audio file to mono float32 PCM at the
// given rate. Returns the decoded clip.
func DecodeFile(path string, sampleRate int) (Clip, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	cmd := exec.Command(ffmpegBin(),
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return Clip{}, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	samples := BytesToSamples(out)
	if len(samples) == 0 {
		return Clip{}, fmt.Errorf("ffmpeg decode %s: no audio data", path)
	}

	return Clip{Path: path, Samples: samples, SampleRate: sampleRate}, nil
}

// BytesToSamples converts little-endian float32 PCM bytes to samples.
// Trailing bytes that do not form a whole sample are dropped.
func BytesToSamples(buf []byte) []float32 {
	samples := make([]float32, len(buf)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

// SamplesToBytes converts float32 samples to little-endian PCM bytes.
func SamplesToBytes(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}
