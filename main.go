package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/gordonklaus/portaudio"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
	cli "github.com/spf13/pflag"

	"voice-assistant/command_router"
	"voice-assistant/config"
	"voice-assistant/listener"
	"voice-assistant/microphone"
	"voice-assistant/piper"
	"voice-assistant/playback"
	"voice-assistant/skills"
	"voice-assistant/speech_synthesis"
	"voice-assistant/speech_to_text"
	"voice-assistant/tuning"
	"voice-assistant/wake_word"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := cli.StringP("config", "c", "config.yaml", "Config file path")
	logLevel := cli.StringP("log", "l", "", "Log level override (debug, info, warn, error)")
	tune := cli.BoolP("tune", "t", false, "Sample ambient noise and suggest gate thresholds")
	tuneWav := cli.String("tune-wav", "", "Write the tuning capture to this WAV file")
	cli.Parse()

	setLogger("info")

	fileSys := afero.NewOsFs()
	cfg := config.Load(fileSys, *configPath)

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	setLogger(level)

	if err := portaudio.Initialize(); err != nil {
		slog.Error("initializing audio", "err", err)

		return 1
	}

	defer portaudio.Terminate()

	if *tune {
		return runTune(fileSys, cfg, *tuneWav)
	}

	return runAssistant(fileSys, cfg)
}

func runAssistant(fileSys afero.Fs, cfg *config.Config) int {
	if _, err := fileSys.Stat(cfg.Whisper.ModelPath); err != nil {
		slog.Error("whisper model not found", "path", cfg.Whisper.ModelPath)
		printAssetHelp(cfg)

		return 1
	}

	model, err := whisper.New(cfg.Whisper.ModelPath)
	if err != nil {
		slog.Error("loading whisper model", "err", err)

		return 1
	}

	defer model.Close()

	sttEngine, err := speech_to_text.New(&speech_to_text.Config{
		Model:    model,
		Language: cfg.Whisper.Language,
		Threads:  uint(cfg.Whisper.Threads),
	})
	if err != nil {
		slog.Error("creating transcription engine", "err", err)

		return 1
	}

	ttsEngine, err := piper.New(&piper.Config{
		FileSys:   fileSys,
		Binary:    cfg.Piper.Binary,
		ModelPath: cfg.Piper.ModelPath,
	})
	if err != nil {
		slog.Error("creating speech engine", "err", err)
		printAssetHelp(cfg)

		return 1
	}

	synth, err := speech_synthesis.New(&speech_synthesis.Config{
		Engine: ttsEngine,
		Player: playback.New(),
	})
	if err != nil {
		slog.Error("creating speech synthesizer", "err", err)

		return 1
	}

	wake, err := wake_word.New(&wake_word.Config{
		Phrase:  cfg.WakeWord.Phrase,
		Timeout: cfg.WakeWord.Timeout(),
	})
	if err != nil {
		slog.Error("creating wake word gate", "err", err)

		return 1
	}

	mic, err := microphone.New(&microphone.Config{
		SampleRate: cfg.Audio.SampleRate,
		BlockSize:  cfg.Audio.BlockSize,
		Channels:   cfg.Audio.Channels,
	})
	if err != nil {
		slog.Error("creating microphone", "err", err)

		return 1
	}

	assistant, err := listener.New(&listener.Config{
		Cfg:         cfg,
		Microphone:  mic,
		STTEngine:   sttEngine,
		Synthesizer: synth,
		WakeWord:    wake,
	})
	if err != nil {
		slog.Error("creating listener", "err", err)

		return 1
	}

	table, err := skills.Table(&skills.Config{
		Synthesizer: synth,
		WakeWord:    wake,
		Stopper:     assistant,
	})
	if err != nil {
		slog.Error("building command table", "err", err)

		return 1
	}

	router, err := command_router.New(&command_router.Config{
		Table:       table,
		Synthesizer: synth,
	})
	if err != nil {
		slog.Error("creating command router", "err", err)

		return 1
	}

	assistant.SetRouter(router)

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		<-sigs

		slog.Info("interrupt received, shutting down")
		assistant.RequestStop()
	}()

	if err := assistant.Run(); err != nil {
		slog.Error("run loop terminated", "err", err)

		return 1
	}

	slog.Info("goodbye")

	return 0
}

func runTune(fileSys afero.Fs, cfg *config.Config, wavPath string) int {
	suggestion, err := tuning.Run(&tuning.Config{
		FileSys:  fileSys,
		Cfg:      cfg,
		Duration: time.Second * 5,
		WavPath:  wavPath,
	})
	if err != nil {
		slog.Error("tuning session failed", "err", err)

		return 1
	}

	fmt.Printf("ambient rms:          %.5f\n", suggestion.AmbientRMS)
	fmt.Printf("peak amplitude:       %.5f\n", suggestion.PeakAmplitude)
	fmt.Printf("dominant frequency:   %.0f Hz\n", suggestion.DominantFrequencyHz)
	fmt.Println()
	fmt.Println("suggested audio settings:")
	fmt.Printf("  rms_threshold:        %.5f\n", suggestion.RMSThreshold)
	fmt.Printf("  peak_threshold:       %.5f\n", suggestion.PeakThreshold)
	fmt.Printf("  noise_gate_threshold: %.5f\n", suggestion.NoiseGateThreshold)

	return 0
}

func setLogger(level string) {
	lvl, ok := logLevelMap[level]
	if !ok {
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: lvl,
	})))
}

func printAssetHelp(cfg *config.Config) {
	fmt.Println("Missing required model files.")
	fmt.Println()
	fmt.Println("Please ensure:")
	fmt.Printf("1. the whisper model exists at %q (e.g. ggml-base.en.bin from whisper.cpp)\n", cfg.Whisper.ModelPath)
	fmt.Printf("2. the piper voice model exists at %q (an .onnx voice with its .json next to it)\n", cfg.Piper.ModelPath)
	fmt.Println()
	fmt.Println("Both paths can be changed in the config file.")
}
