package tuning

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/mjibson/go-dsp/spectral"
	"github.com/spf13/afero"
	wave "github.com/zenwerk/go-wave"

	"voice-assistant/config"
	"voice-assistant/ring_buffer"
)

const (
	defaultDuration = time.Second * 5
	levelWindow     = 256
)

// Suggestion holds signal-gate thresholds derived from an ambient capture,
// plus the measurements they were derived from.
type Suggestion struct {
	AmbientRMS          float64
	PeakAmplitude       float64
	DominantFrequencyHz float64
	RMSThreshold        float64
	PeakThreshold       float64
	NoiseGateThreshold  float64
}

type Config struct {
	FileSys  afero.Fs
	Cfg      *config.Config
	Duration time.Duration
	WavPath  string
}

// Run records ambient audio from the default input device and derives
// threshold suggestions for the signal gate. Stay quiet while it runs: the
// capture should contain only the room's background noise.
func Run(cfg *Config) (*Suggestion, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Cfg == nil {
		return nil, fmt.Errorf("cfg is nil")
	}

	duration := cfg.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	sampleRate := cfg.Cfg.Audio.SampleRate
	frameSize := cfg.Cfg.Audio.BlockSize

	in := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(in), in)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}

	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting input stream: %w", err)
	}

	defer stream.Stop()

	slog.Info("sampling ambient noise", "duration", duration)

	levels := ring_buffer.New(levelWindow)
	captured := make([]float32, 0, int(duration.Seconds()*float64(sampleRate)))

	var peak float64

	frames := int(duration.Seconds() * float64(sampleRate) / float64(frameSize))
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading input stream: %w", err)
		}

		levels.Add(blockRMS(in))

		for _, s := range in {
			if a := math.Abs(float64(s)); a > peak {
				peak = a
			}
		}

		captured = append(captured, in...)
	}

	suggestion := suggest(levels.Read(), peak)
	suggestion.DominantFrequencyHz = dominantFrequency(captured, sampleRate)

	if cfg.WavPath != "" {
		if err := writeCapture(cfg.FileSys, cfg.WavPath, captured, sampleRate); err != nil {
			slog.Warn("could not write capture", "path", cfg.WavPath, "err", err)
		} else {
			slog.Info("capture written", "path", cfg.WavPath)
		}
	}

	return suggestion, nil
}

// suggest places each gate threshold a fixed margin above the measured
// ambient floor, with floors so dead-quiet rooms still get usable values.
func suggest(levels []float64, peak float64) *Suggestion {
	ambient := median(levels)

	return &Suggestion{
		AmbientRMS:         ambient,
		PeakAmplitude:      peak,
		RMSThreshold:       math.Max(ambient*3, 0.005),
		PeakThreshold:      math.Max(peak*2, 0.02),
		NoiseGateThreshold: math.Max(ambient*1.5, 0.003),
	}
}

func blockRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}

	return math.Sqrt(sum / float64(len(samples)))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	return sorted[mid]
}

// dominantFrequency reports where the ambient energy sits in the spectrum,
// which helps tell hum (mains, fans) from broadband noise when tuning.
func dominantFrequency(samples []float32, sampleRate int) float64 {
	if len(samples) == 0 {
		return 0
	}

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = float64(s)
	}

	power, freqs := spectral.Pwelch(data, float64(sampleRate), &spectral.PwelchOptions{NFFT: 2048})
	if len(power) == 0 {
		return 0
	}

	best := 0
	for i := range power {
		if power[i] > power[best] {
			best = i
		}
	}

	return freqs[best]
}

func writeCapture(fileSys afero.Fs, path string, samples []float32, sampleRate int) error {
	file, err := fileSys.Create(path)
	if err != nil {
		return err
	}

	writer, err := wave.NewWriter(wave.WriterParam{
		Out:           file,
		Channel:       1,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		file.Close()

		return err
	}

	defer writer.Close()

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		v := s
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}

		pcm[i] = int16(v * 32767)
	}

	_, err = writer.WriteSample16(pcm)

	return err
}
