// Command beatinfo analyzes the rhythm of one or more audio files and prints
// JSON results: tempo, beat times, confidence, candidate tempi, and the
// extraction tier that produced them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/pulsekit/pulsekit/internal/audio"
	"github.com/pulsekit/pulsekit/internal/beat"
	"github.com/pulsekit/pulsekit/internal/capability"
	"github.com/pulsekit/pulsekit/internal/config"
	"github.com/pulsekit/pulsekit/internal/interp"
	"github.com/pulsekit/pulsekit/internal/quantize"
)

type report struct {
	File     string       `json:"file"`
	Duration float64      `json:"duration,omitempty"`
	Tier     string       `json:"tier,omitempty"`
	Result   *beat.Result `json:"result,omitempty"`
	Grid     []float64    `json:"grid,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func main() {
	rate := flag.Int("rate", 0, "decode sample rate in Hz (default BEAT_SAMPLE_RATE)")
	steps := flag.Int("steps", 0, "also emit a sub-beat grid with this many steps per beat")
	workers := flag.Int("workers", 0, "parallel analyses (default BEAT_WORKERS)")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: beatinfo [flags] file...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	if *rate > 0 {
		cfg.SampleRate = *rate
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	caps := capability.Probe()
	extractor := beat.New(cfg, caps)
	itp := interp.New(caps)

	reports := analyzeAll(files, cfg, extractor, itp, *steps)

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(reports); err != nil {
		log.Fatalf("encode results: %v", err)
	}

	for _, r := range reports {
		if r.Error != "" {
			os.Exit(1)
		}
	}
}

// analyzeAll runs extraction over the files with a bounded worker pool.
// Results keep input order regardless of completion order.
func analyzeAll(files []string, cfg config.Config, extractor *beat.Extractor, itp interp.Func, steps int) []report {
	reports := make([]report, len(files))

	var progress *mpb.Progress
	var bar *mpb.Bar
	if len(files) > 1 {
		progress = mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("analyzing "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			reports[idx] = analyzeOne(path, cfg, extractor, itp, steps)
			if bar != nil {
				bar.Increment()
			}
		}(i, path)
	}
	wg.Wait()
	if progress != nil {
		progress.Wait()
	}
	return reports
}

func analyzeOne(path string, cfg config.Config, extractor *beat.Extractor, itp interp.Func, steps int) report {
	clip, err := audio.DecodeFile(path, cfg.SampleRate)
	if err != nil {
		return report{File: path, Error: err.Error()}
	}

	out, err := extractor.Extract(clip.Samples, clip.SampleRate)
	if err != nil {
		return report{File: path, Duration: clip.Duration(), Error: err.Error()}
	}

	r := report{
		File:     path,
		Duration: clip.Duration(),
		Tier:     out.Tier,
		Result:   &out.Result,
	}

	if steps > 0 && len(out.Result.BeatTimes) >= 2 {
		grid, err := quantize.Grid(out.Result.BeatTimes, steps, true, itp)
		if err != nil {
			log.Printf("beatinfo: grid for %s: %v", path, err)
		} else {
			r.Grid = grid
		}
	}
	return r
}
