package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saynalabs/sayna/pkg/adapters/speak"
	"github.com/saynalabs/sayna/pkg/adapters/transcribe"
	"github.com/saynalabs/sayna/pkg/capture"
	"github.com/saynalabs/sayna/pkg/config"
	"github.com/saynalabs/sayna/pkg/configutil"
	"github.com/saynalabs/sayna/pkg/dialog"
	"github.com/saynalabs/sayna/pkg/endpoint"
	"github.com/saynalabs/sayna/pkg/input"
	"github.com/saynalabs/sayna/pkg/logging"
	"github.com/saynalabs/sayna/pkg/observers"
	"github.com/saynalabs/sayna/pkg/providers/deepgram"
	"github.com/saynalabs/sayna/pkg/providers/mock"
	"github.com/saynalabs/sayna/pkg/providers/piper"
	"github.com/saynalabs/sayna/pkg/providers/whispercpp"
	"github.com/saynalabs/sayna/pkg/route"
	"github.com/saynalabs/sayna/pkg/runner"
	"github.com/saynalabs/sayna/pkg/session"
)

type whispercppSettings struct {
	BinPath   string `mapstructure:"bin_path"`
	ModelPath string `mapstructure:"model_path"`
	WavPath   string `mapstructure:"wav_path"`
	Language  string `mapstructure:"language"`
	Threads   int    `mapstructure:"threads"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type deepgramSettings struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

type piperSettings struct {
	BinPath    string `mapstructure:"bin_path"`
	ModelPath  string `mapstructure:"model_path"`
	OutPath    string `mapstructure:"out_path"`
	PlayerPath string `mapstructure:"player_path"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
}

type mockTranscriberSettings struct {
	Transcript string `mapstructure:"transcript"`
}

func main() {
	configPath := flag.String("config", "config/sayna.yaml", "")
	flag.Parse()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	transcriber, err := buildTranscriber(cfg, log)
	if err != nil {
		fatal(log, "transcriber", err)
	}
	speaker, err := buildSpeaker(cfg, log)
	if err != nil {
		fatal(log, "speaker", err)
	}
	source, err := buildSource(cfg, log)
	if err != nil {
		fatal(log, "capture source", err)
	}

	switcher := route.NewPactlSwitcher(cfg.Route.Card, log)
	switcher.CaptureProfile = cfg.Route.CaptureProfile
	switcher.PlaybackProfile = cfg.Route.PlaybackProfile
	switcher.Timeout = time.Duration(cfg.Route.PactlTimeoutMS) * time.Millisecond
	router := route.NewController(switcher, cfg.RouteDelays(), log)

	engine := capture.NewEngine(source, cfg.CaptureConfig(), log)
	dialogClient := dialog.NewClient(dialog.Config{
		BaseURL:      cfg.Dialog.BaseURL,
		Model:        cfg.Dialog.Model,
		APIKey:       cfg.Dialog.APIKey,
		SystemPrompt: cfg.Dialog.SystemPrompt,
		MaxTokens:    cfg.Dialog.MaxTokens,
		Temperature:  cfg.Dialog.Temperature,
		Timeout:      time.Duration(cfg.Dialog.TimeoutMS) * time.Millisecond,
	}, log)

	newClassifier := func() endpoint.Classifier {
		return endpoint.NewEnergyClassifierWithThresholds(cfg.Endpoint.EnergyEnter, cfg.Endpoint.EnergyLeave)
	}
	orch := session.NewOrchestrator(cfg.SessionConfig(), router, engine, newClassifier, transcriber, dialogClient, speaker, log)
	orch.AddListener(observers.NewLatencyObserver(log))
	var timeline *observers.TimelineObserver
	if cfg.Observability.ArtifactsDir != "" {
		timeline = observers.NewTimelineObserver(cfg.Observability.ArtifactsDir)
		orch.AddListener(timeline)
	}

	buttons, err := input.OpenEvdevSource(cfg.Input.Device, log)
	if err != nil {
		fatal(log, "input device", err)
	}
	filter := input.NewTriggerFilter(cfg.Input.TriggerScanCodes)

	log.Info("starting",
		slog.String("environment", cfg.Environment),
		slog.String("transcriber", transcriber.Name()),
		slog.String("speaker", speaker.Name()),
		slog.String("input_device", cfg.Input.Device),
		slog.String("card", cfg.Route.Card))

	r := runner.NewLifecycleRunner(
		func(ctx context.Context) error {
			return orch.Run(ctx, buttons, filter)
		},
		orch,
		runner.Hooks{
			OnStop: func() {
				_ = buttons.Close()
				if timeline != nil {
					_ = timeline.Close()
				}
			},
		},
		time.Duration(cfg.Session.DrainTimeoutMS)*time.Millisecond,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		_ = r.Stop()
	}()

	if err := r.Run(context.Background()); err != nil {
		fatal(log, "run", err)
	}
}

func fatal(log *slog.Logger, stage string, err error) {
	log.Error(stage+" failed", slog.String("error", err.Error()))
	os.Exit(1)
}

func buildTranscriber(cfg config.Config, log *slog.Logger) (transcribe.Transcriber, error) {
	settingsMap := cfg.Vendors.Transcriber.Settings
	switch cfg.Vendors.Transcriber.Provider {
	case "whispercpp":
		if err := validateSettings("vendors.transcriber.settings", settingsMap, configutil.Schema{
			Required: []string{"model_path"},
			Optional: []string{"bin_path", "wav_path", "language", "threads", "timeout_ms"},
		}); err != nil {
			return nil, err
		}
		var settings whispercppSettings
		if err := configutil.DecodeSettings(settingsMap, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.ModelPath, "vendors.transcriber.settings.model_path"); err != nil {
			return nil, err
		}
		return whispercpp.New(whispercpp.Config{
			BinPath:   settings.BinPath,
			ModelPath: settings.ModelPath,
			WavPath:   settings.WavPath,
			Language:  settings.Language,
			Threads:   settings.Threads,
			Timeout:   time.Duration(settings.TimeoutMS) * time.Millisecond,
		}, log), nil
	case "deepgram":
		if err := validateSettings("vendors.transcriber.settings", settingsMap, configutil.Schema{
			Required: []string{"api_key"},
			Optional: []string{"model", "language"},
		}); err != nil {
			return nil, err
		}
		var settings deepgramSettings
		if err := configutil.DecodeSettings(settingsMap, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.transcriber.settings.api_key"); err != nil {
			return nil, err
		}
		return deepgram.New(deepgram.Config{
			APIKey:   settings.APIKey,
			Model:    settings.Model,
			Language: settings.Language,
		}, log), nil
	case "mock":
		if err := validateSettings("vendors.transcriber.settings", settingsMap, configutil.Schema{
			Optional: []string{"transcript"},
		}); err != nil {
			return nil, err
		}
		var settings mockTranscriberSettings
		if err := configutil.DecodeSettings(settingsMap, &settings); err != nil {
			return nil, err
		}
		return mock.NewTranscriber(mock.TranscriberConfig{Transcript: settings.Transcript}), nil
	default:
		return nil, fmt.Errorf("unknown transcriber provider %q", cfg.Vendors.Transcriber.Provider)
	}
}

func buildSpeaker(cfg config.Config, log *slog.Logger) (speak.Speaker, error) {
	settingsMap := cfg.Vendors.Speaker.Settings
	switch cfg.Vendors.Speaker.Provider {
	case "piper":
		if err := validateSettings("vendors.speaker.settings", settingsMap, configutil.Schema{
			Required: []string{"model_path"},
			Optional: []string{"bin_path", "out_path", "player_path", "timeout_ms"},
		}); err != nil {
			return nil, err
		}
		var settings piperSettings
		if err := configutil.DecodeSettings(settingsMap, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.ModelPath, "vendors.speaker.settings.model_path"); err != nil {
			return nil, err
		}
		return piper.New(piper.Config{
			BinPath:    settings.BinPath,
			VoicePath:  settings.ModelPath,
			OutPath:    settings.OutPath,
			PlayerPath: settings.PlayerPath,
			Timeout:    time.Duration(settings.TimeoutMS) * time.Millisecond,
		}, log), nil
	case "mock":
		return mock.NewSpeaker(mock.SpeakerConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown speaker provider %q", cfg.Vendors.Speaker.Provider)
	}
}

func buildSource(cfg config.Config, log *slog.Logger) (capture.Source, error) {
	switch cfg.Capture.Source {
	case "parec":
		return capture.NewParecSource(cfg.Capture.Device, cfg.Capture.SampleRate, cfg.Capture.Channels, log), nil
	case "portaudio":
		frameSamples := cfg.Capture.SampleRate * cfg.Capture.FrameMS / 1000
		return capture.NewPortAudioSource(cfg.Capture.SampleRate, cfg.Capture.Channels, frameSamples), nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", cfg.Capture.Source)
	}
}

func validateSettings(path string, input map[string]any, schema configutil.Schema) error {
	if err := configutil.ValidateSettings(input, schema); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
