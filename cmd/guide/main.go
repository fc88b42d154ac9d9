package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	log "log/slog"

	cli "github.com/spf13/pflag"

	"siloso/internal/audio"
	"siloso/internal/guide"
	"siloso/pkg/protocol"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	url := cli.StringP("url", "u", "ws://localhost:8092/ws", "Url of the guide")
	out := cli.StringP("out", "o", "answer.mp3", "Where to write the spoken answer")
	voiceID := cli.StringP("voice", "v", "", "Voice for the answer")
	timeout := cli.DurationP("timeout", "t", 2*time.Minute, "Handshake timeout")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	if cli.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: guide [flags] question.wav")
		os.Exit(2)
	}

	if err := run(*url, cli.Arg(0), *out, *voiceID, *timeout); err != nil {
		log.Error("Failed to ask the guide", "err", err)
		os.Exit(1)
	}
}

func run(url, in, out, voiceID string, timeout time.Duration) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	format, ok := audio.ParseFormat(filepath.Ext(in))
	if !ok {
		return fmt.Errorf("unknown audio format %q", filepath.Ext(in))
	}

	conn, err := protocol.Dial(url, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	// the daemon greets every connection with a render
	if first := conn.Read(); first.Kind != protocol.READ_OK {
		return fmt.Errorf("no greeting: %w", first.Err)
	}

	if voiceID != "" {
		rep, err := conn.TransmitReceive(&protocol.Envelope{Kind: protocol.KindVoice, Content: voiceID})
		if err != nil {
			return err
		}
		if rep.Kind == protocol.KindError {
			return errors.New(rep.Content)
		}
	}

	rep, err := conn.TransmitReceive(&protocol.Envelope{
		Kind:   protocol.KindAsk,
		Audio:  data,
		Format: string(format),
	})
	if err != nil {
		return err
	}

	var view guide.View
	if err := rep.DecodeView(&view); err != nil {
		return err
	}
	fmt.Print(view.Text())

	if rep.Kind == protocol.KindError {
		return errors.New(rep.Content)
	}

	t := view.Turn
	if t == nil {
		return errors.New("no answer in render")
	}
	if t.Error != "" {
		return errors.New(t.Error)
	}
	if len(t.Audio) > 0 {
		if err := os.WriteFile(out, t.Audio, 0o644); err != nil {
			return err
		}
		log.Info("Wrote answer", "path", out, "bytes", len(t.Audio))
	}
	return nil
}
