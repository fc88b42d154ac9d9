package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// MissingKeyError tells the operator where the credential is expected.
type MissingKeyError struct {
	EnvFile string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%v: add a line OPENAI_API_KEY=<your key> to %s or export it in the daemon's environment",
		ErrMissingAPIKey, e.EnvFile)
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingAPIKey }

type Config struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`

	TranscribeModel string `env:"GUIDE_TRANSCRIBE_MODEL" envDefault:"gpt-4o-mini-transcribe"`
	ChatModel       string `env:"GUIDE_CHAT_MODEL" envDefault:"gpt-4.1-mini"`
	SpeechModel     string `env:"GUIDE_SPEECH_MODEL" envDefault:"gpt-4o-mini-tts"`

	// "openai" or "whisper"
	STT          string `env:"GUIDE_STT" envDefault:"openai"`
	WhisperModel string `env:"GUIDE_WHISPER_MODEL" envDefault:"third_party/whisper.cpp/models/ggml-medium.bin"`

	Voice   string `env:"GUIDE_VOICE" envDefault:"alloy"`
	Profile string `env:"GUIDE_PROFILE"`

	HTTPAddr string        `env:"GUIDE_HTTP_ADDR" envDefault:":8092"`
	Socket   string        `env:"GUIDE_SOCKET" envDefault:"/tmp/guide.sock"`
	Proxy    string        `env:"GUIDE_PROXY"`
	Timeout  time.Duration `env:"GUIDE_HTTP_TIMEOUT" envDefault:"120s"`

	Mic bool   `env:"GUIDE_MIC" envDefault:"false"`
	Cue string `env:"GUIDE_CUE"`

	LogLevel string `env:"GUIDE_LOG" envDefault:"info"`

	EnvFile string
}

// Load parses args, reads the env file, then the environment. Flags given
// on the command line win over both.
func Load(args []string) (*Config, error) {
	flags := cli.NewFlagSet("guide-daemon", cli.ContinueOnError)
	envFile := flags.StringP("env", "e", ".env", "Env file path")
	httpAddr := flags.StringP("http", "a", "", "Listen address of the web surface, \"off\" disables it")
	socket := flags.StringP("socket", "s", "", "Control socket path")
	proxy := flags.StringP("proxy", "p", "", "Socks proxy address")
	logLevel := flags.StringP("log", "l", "", "Log level")
	profile := flags.String("profile", "", "Attraction profile (yaml)")
	sttBackend := flags.String("stt", "", "Transcription backend: openai or whisper")
	whisperModel := flags.String("whisper-model", "", "whisper.cpp model path")
	mic := flags.Bool("mic", false, "Enable the local microphone surface")
	cue := flags.String("cue", "", "mp3 played before recording starts")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.EnvFile = *envFile

	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("http", &cfg.HTTPAddr, *httpAddr)
	override("socket", &cfg.Socket, *socket)
	override("proxy", &cfg.Proxy, *proxy)
	override("log", &cfg.LogLevel, *logLevel)
	override("profile", &cfg.Profile, *profile)
	override("stt", &cfg.STT, *sttBackend)
	override("whisper-model", &cfg.WhisperModel, *whisperModel)
	override("cue", &cfg.Cue, *cue)
	if flags.Changed("mic") {
		cfg.Mic = *mic
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return &MissingKeyError{EnvFile: c.EnvFile}
	}
	switch c.STT {
	case "openai", "whisper":
	default:
		return fmt.Errorf("unknown stt backend %q (want openai or whisper)", c.STT)
	}
	return nil
}

// WebEnabled reports whether the web surface should listen.
func (c *Config) WebEnabled() bool {
	return c.HTTPAddr != "" && c.HTTPAddr != "off"
}
