// Command vowelinfo inspects the formant-shifting configuration.
//
// Usage:
//
//	vowelinfo [flags] [vowel ...]
//
// Without arguments it prints the full vowel warp table plus the bin
// geometry for the configured transform. With vowel labels it prints
// only those rows.
//
// Examples:
//
//	vowelinfo
//	vowelinfo i u
//	vowelinfo -rate 16000 -frame 2048 -hop 512
//	vowelinfo -scale 1.5 -demo
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/stats/frequency"

	"github.com/cwbudde/algo-voicemorph/dsp/formant"
)

func main() {
	rate := flag.Float64("rate", 16000, "sample rate in Hz")
	frame := flag.Int("frame", 1024, "FFT frame size")
	hop := flag.Int("hop", 256, "analysis hop in samples")
	maxFreq := flag.Float64("maxfreq", 4000, "warpable band ceiling in Hz")
	scale := flag.Float64("scale", 1, "alpha table scale factor")
	demo := flag.Bool("demo", false, "shift a synthetic vowel and report the centroid movement")
	flag.Parse()

	shifter, err := formant.NewShifter(*rate,
		formant.WithFrameSize(*frame),
		formant.WithHop(*hop),
		formant.WithMaxFrequency(*maxFreq),
		formant.WithAlphaScale(*scale),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vowelinfo:", err)
		os.Exit(1)
	}

	printTable(shifter, flag.Args())
	printGeometry(shifter)

	if *demo {
		err = runDemo(shifter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "vowelinfo:", err)
			os.Exit(1)
		}
	}
}

func printTable(s *formant.Shifter, labels []string) {
	table := s.Table()

	if len(labels) == 0 {
		labels = make([]string, 0, len(table))
		for label := range table {
			labels = append(labels, label)
		}

		sort.Strings(labels)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VOWEL\tALPHA\tEFFECT")

	for _, label := range labels {
		alpha := table.Alpha(label)
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", label, alpha, describeAlpha(alpha))
	}

	w.Flush()
}

func describeAlpha(alpha float64) string {
	switch {
	case alpha > 1:
		return "raises formants"
	case alpha < 1:
		return "lowers formants"
	default:
		return "pass-through"
	}
}

func printGeometry(s *formant.Shifter) {
	t := s.Transform()

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "sample rate\t%.0f Hz\n", t.SampleRate())
	fmt.Fprintf(w, "frame / hop / window\t%d / %d / %d\n", t.FrameSize(), t.Hop(), t.WindowLength())
	fmt.Fprintf(w, "bins\t%d (%.2f Hz apart)\n", t.Bins(), t.BinHz())
	fmt.Fprintf(w, "warpable band\t0 - %.0f Hz\n", s.MaxFrequency())
	fmt.Fprintf(w, "frames per second of audio\t%d\n", t.FrameCount(int(t.SampleRate())))
	w.Flush()
}

// runDemo synthesizes a vowel-like harmonic tone, shifts it as phoneme
// "i", and reports how the spectral centroid moved.
func runDemo(s *formant.Shifter) error {
	t := s.Transform()
	rate := t.SampleRate()
	length := int(rate / 2)

	gen := signal.NewGenerator(core.WithSampleRate(rate))

	// Stacked partials around typical front-vowel formant regions.
	buf := make([]float64, length)

	for _, partial := range []struct {
		freq, amp float64
	}{
		{150, 0.4}, {300, 0.5}, {450, 0.3}, {2250, 0.2}, {3000, 0.1},
	} {
		tone, err := gen.Sine(partial.freq, partial.amp, length)
		if err != nil {
			return err
		}

		for i := range buf {
			buf[i] += tone[i]
		}
	}

	seg := formant.Segment{Start: 0, End: float64(length) / rate, Phoneme: "i"}

	shifted, err := s.ShiftSegment(buf, seg)
	if err != nil {
		return err
	}

	before, err := averageMagnitude(s, buf)
	if err != nil {
		return err
	}

	after, err := averageMagnitude(s, shifted)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "demo centroid (full band)\t%.1f Hz -> %.1f Hz\n",
		frequency.Calculate(before, rate).Centroid,
		frequency.Calculate(after, rate).Centroid)
	fmt.Fprintf(w, "demo centroid (below %.0f Hz)\t%.1f Hz -> %.1f Hz\n",
		s.MaxFrequency(),
		bandCentroid(before, t.BinHz(), s.MaxFrequency()),
		bandCentroid(after, t.BinHz(), s.MaxFrequency()))
	w.Flush()

	return nil
}

func averageMagnitude(s *formant.Shifter, samples []float64) ([]float64, error) {
	t := s.Transform()

	spectra, err := t.Analyze(samples)
	if err != nil {
		return nil, err
	}

	avg := make([]float64, t.Bins())
	for _, row := range spectra {
		mag := spectrum.Magnitude(row)
		for i, v := range mag {
			avg[i] += v
		}
	}

	for i := range avg {
		avg[i] /= float64(len(spectra))
	}

	return avg, nil
}

func bandCentroid(mag []float64, binHz, maxFreq float64) float64 {
	var num, den float64

	for i, v := range mag {
		freq := float64(i) * binHz
		if freq > maxFreq {
			break
		}

		num += freq * v
		den += v
	}

	if den < math.SmallestNonzeroFloat64 {
		return 0
	}

	return num / den
}
