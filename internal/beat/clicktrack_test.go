package beat

// clickTrack synthesizes a mono click track: short broadband bursts at the
// given tempo, starting at startSec, over silence.
func clickTrack(bpm, durSec, startSec float64, sampleRate int) []float32 {
	samples := make([]float32, int(durSec*float64(sampleRate)))
	period := 60.0 / bpm
	for t := startSec; t < durSec; t += period {
		pos := int(t * float64(sampleRate))
		for j := 0; j < 32 && pos+j < len(samples); j++ {
			if j%2 == 0 {
				samples[pos+j] = 0.9
			} else {
				samples[pos+j] = -0.9
			}
		}
	}
	return samples
}
