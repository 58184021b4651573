package beat

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/pulsekit/pulsekit/internal/config"
)

// Neural tracker model parameters. The mel model consumes raw audio at
// trackerSampleRate and emits one frame per trackerHopLength samples; the
// tracker model turns mel frames into per-frame beat logits.
const (
	trackerSampleRate = 22050
	trackerHopLength  = 441
	trackerChunkSize  = 1500 // frames (~30 seconds)
	trackerOverlap    = 150  // frames (~3 seconds)
)

// bestBackend runs a two-stage ONNX beat tracker: a mel spectrogram model
// followed by a neural beat activation model. Sessions are built lazily on
// first use; a build failure is a tier-local error for that call, not a
// permanent capability downgrade.
type bestBackend struct {
	modelDir string
	minBPM   float64

	initOnce sync.Once
	initErr  error

	mu      sync.Mutex // ONNX sessions are not safe for concurrent Run
	mel     *ort.DynamicAdvancedSession
	tracker *ort.DynamicAdvancedSession
}

func newBestBackend(cfg config.Config) *bestBackend {
	return &bestBackend{modelDir: cfg.ModelDir, minBPM: cfg.MinBPM}
}

func (b *bestBackend) Name() string { return TierBest }

func (b *bestBackend) Extract(samples []float32, sampleRate int) (*Result, error) {
	b.initOnce.Do(b.buildSessions)
	if b.initErr != nil {
		return nil, fmt.Errorf("beat tracker sessions: %w", b.initErr)
	}

	if sampleRate != trackerSampleRate {
		samples = resampleLinear(samples, sampleRate, trackerSampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples after resampling to %d Hz", trackerSampleRate)
	}

	b.mu.Lock()
	mel, err := b.runMel(samples)
	if err == nil && len(mel) == 0 {
		err = fmt.Errorf("mel model produced no frames")
	}
	var logits []float32
	if err == nil {
		logits, err = b.runTracker(mel)
	}
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	hopSeconds := float64(trackerHopLength) / float64(trackerSampleRate)
	probs := make([]float64, len(logits))
	for i, l := range logits {
		probs[i] = 1.0 / (1.0 + math.Exp(-float64(l)))
	}

	// Peaks at least 60/tempoFoldHigh seconds apart, i.e. never faster than
	// the folding ceiling.
	minSep := int((60.0 / tempoFoldHigh) / hopSeconds)
	peaks := findPeaks(probs, 0.5, minSep)

	beatTimes := make([]float64, len(peaks))
	var probSum float64
	for i, p := range peaks {
		beatTimes[i] = float64(p) * hopSeconds
		probSum += probs[p]
	}

	if len(beatTimes) < 2 {
		// The model saw no pulse; report the degenerate floor rather than
		// failing, since the inference itself succeeded.
		return &Result{BPM: b.minBPM, Confidence: 0}, nil
	}

	ivals := intervals(beatTimes)
	bpm := foldBPM(60.0 / median(ivals))

	return &Result{
		BPM:            bpm,
		BeatTimes:      beatTimes,
		Confidence:     clamp01(probSum / float64(len(peaks))),
		TempoEstimates: estimatesFromIntervals(ivals),
		BeatIntervals:  ivals,
	}, nil
}

func (b *bestBackend) buildSessions() {
	melPath := filepath.Join(b.modelDir, "mel.onnx")
	trackerPath := filepath.Join(b.modelDir, "tracker.onnx")

	mel, err := ort.NewDynamicAdvancedSession(
		melPath,
		[]string{"audio"},
		[]string{"mel_spectrogram"},
		nil,
	)
	if err != nil {
		b.initErr = fmt.Errorf("create mel session: %w", err)
		return
	}

	tracker, err := ort.NewDynamicAdvancedSession(
		trackerPath,
		[]string{"mel_spectrogram"},
		[]string{"beat_logits"},
		nil,
	)
	if err != nil {
		mel.Destroy()
		b.initErr = fmt.Errorf("create tracker session: %w", err)
		return
	}

	b.mel = mel
	b.tracker = tracker
}

// runMel converts raw audio into mel frames of shape (time, mels).
func (b *bestBackend) runMel(audio []float32) ([][]float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(audio))), audio)
	if err != nil {
		return nil, fmt.Errorf("create mel input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := b.mel.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("mel inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("mel output was nil")
	}
	defer outputs[0].Destroy()

	shape := outputs[0].GetShape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("unexpected mel output shape: %v", shape)
	}
	frames, mels := int(shape[1]), int(shape[2])

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected mel output tensor type")
	}
	data := tensor.GetData()

	mel := make([][]float32, frames)
	for t := 0; t < frames; t++ {
		mel[t] = make([]float32, mels)
		copy(mel[t], data[t*mels:(t+1)*mels])
	}
	return mel, nil
}

// runTracker produces one beat logit per mel frame, chunking long clips with
// overlap so context at chunk edges is not lost.
func (b *bestBackend) runTracker(mel [][]float32) ([]float32, error) {
	return stitchChunks(mel, trackerChunkSize, trackerOverlap, b.runTrackerChunk)
}

// stitchChunks runs inference over overlapping windows of mel and splices the
// per-frame outputs back into one sequence. Every window after the first
// drops its leading overlap frames, which the previous window already
// emitted, so frame f's logit always lands at output index f.
func stitchChunks(mel [][]float32, chunkSize, overlap int, run func([][]float32) ([]float32, error)) ([]float32, error) {
	if len(mel) <= chunkSize {
		return run(mel)
	}

	var all []float32
	start := 0
	for start < len(mel) {
		end := start + chunkSize
		if end > len(mel) {
			end = len(mel)
		}
		logits, err := run(mel[start:end])
		if err != nil {
			return nil, err
		}
		if start == 0 {
			all = append(all, logits...)
		} else if overlap < len(logits) {
			all = append(all, logits[overlap:]...)
		}
		if end == len(mel) {
			break
		}
		start += chunkSize - overlap
	}
	return all, nil
}

func (b *bestBackend) runTrackerChunk(mel [][]float32) ([]float32, error) {
	frames := len(mel)
	if frames == 0 {
		return nil, fmt.Errorf("empty mel chunk")
	}
	mels := len(mel[0])

	flat := make([]float32, frames*mels)
	for t := 0; t < frames; t++ {
		copy(flat[t*mels:(t+1)*mels], mel[t])
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(frames), int64(mels)), flat)
	if err != nil {
		return nil, fmt.Errorf("create tracker input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := b.tracker.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("tracker inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("tracker output was nil")
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected tracker output tensor type")
	}

	data := tensor.GetData()
	logits := make([]float32, len(data))
	copy(logits, data)
	return logits, nil
}

// resampleLinear converts between sample rates with linear interpolation.
// Plenty for a beat activation model that only cares about sub-20 Hz rhythm.
func resampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return samples
	}
	ratio := float64(srcRate) / float64(dstRate)
	out := make([]float32, int(float64(len(samples))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		frac := float32(pos - float64(j))
		if j+1 < len(samples) {
			out[i] = samples[j]*(1-frac) + samples[j+1]*frac
		} else if j < len(samples) {
			out[i] = samples[j]
		}
	}
	return out
}
