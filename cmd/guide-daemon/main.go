package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"siloso/internal/audio/device"
	"siloso/internal/config"
	"siloso/internal/guide"
	"siloso/internal/ipc"
	"siloso/internal/local"
	"siloso/internal/nlu"
	"siloso/internal/proxy"
	"siloso/internal/server"
	"siloso/internal/tts"
	"siloso/internal/voice"
	"siloso/pkg/stt"
)

const localSession = "local"

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var missing *config.MissingKeyError
		if errors.As(err, &missing) {
			log.Error("Cannot start the guide", "err", err)
		} else {
			log.Error("Failed to load config", "err", err)
		}
		os.Exit(1)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[cfg.LogLevel],
	})))

	if err := run(cfg); err != nil {
		log.Error("Guide stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log.Info("Booting up")

	profile := guide.DefaultProfile()
	if cfg.Profile != "" {
		p, err := guide.LoadProfile(cfg.Profile)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", cfg.Profile, err)
		}
		profile = p
	}

	defVoice, err := voice.Parse(cfg.Voice)
	if err != nil {
		log.Warn("Unknown default voice, using alloy", "voice", cfg.Voice)
		defVoice = voice.Default
	}

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("socks proxy %s: %w", cfg.Proxy, err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	log.Debug("Loaded API client")

	transcriber, closeSTT, err := newTranscriber(cfg, client)
	if err != nil {
		return fmt.Errorf("init %s transcription: %w", cfg.STT, err)
	}
	defer closeSTT.Close()

	pipeline := guide.NewPipeline(
		transcriber,
		nlu.NewGenerator(client, cfg.ChatModel),
		tts.NewSynthesizer(client, cfg.SpeechModel),
	)
	newSession := func(id string) *guide.Session {
		return guide.NewSession(id, profile, pipeline, defVoice)
	}

	var rec local.Recorder
	if cfg.Mic {
		mic := device.NewRecorder()
		if err := mic.Init(); err != nil {
			return fmt.Errorf("init audio: %w", err)
		}
		defer mic.Close()
		rec = mic
		log.Debug("Loaded recorder")
	}

	player := device.NewPlayer(cfg.Cue, device.NewDucker([]string{"guide-daemon"}, 10))
	ctl := local.NewController(newSession(localSession), rec, player, cfg.Timeout)

	sock, err := ipc.StartServer(cfg.Socket, ctl.Handle)
	if err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}
	defer sock.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebEnabled() {
		web := server.New(cfg.HTTPAddr, newSession)
		if err := web.Start(ctx); err != nil {
			return fmt.Errorf("web surface: %w", err)
		}
		defer func() {
			if err := web.Stop(); err != nil {
				log.Error("Failed to stop web surface", "err", err)
			}
		}()
	}

	log.Info("Boot up - successful", "web", cfg.WebEnabled(), "socket", cfg.Socket, "mic", cfg.Mic)

	<-ctx.Done()

	log.Info("Shutting down")
	return nil
}

func newTranscriber(cfg *config.Config, client openai.Client) (guide.Transcriber, io.Closer, error) {
	if cfg.STT != "whisper" {
		return stt.NewRemote(client, cfg.TranscribeModel), io.NopCloser(nil), nil
	}

	tr, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: "auto"})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("Loaded whisper", "model", cfg.WhisperModel)
	return tr, tr, nil
}
