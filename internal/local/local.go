package local

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"siloso/internal/audio"
	"siloso/internal/guide"
	"siloso/internal/ipc"
)

type Recorder interface {
	Record(ctx context.Context) (audio.Clip, error)
}

type Player interface {
	Cue()
	Play(ctx context.Context, clip audio.Clip) error
}

// Controller drives the single session of the host machine from control
// socket commands: it records from the microphone and speaks the answer.
type Controller struct {
	sess    *guide.Session
	rec     Recorder
	player  Player
	timeout time.Duration
}

func NewController(sess *guide.Session, rec Recorder, player Player, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Controller{sess: sess, rec: rec, player: player, timeout: timeout}
}

func (c *Controller) Handle(req ipc.Request) ipc.Reply {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	switch req.Cmd {
	case "record":
		view, err := c.record(ctx)
		return reply(view, err)

	case "send":
		view, err := c.send(ctx)
		return reply(view, err)

	case "ask", "trigger":
		if _, err := c.record(ctx); err != nil {
			return reply(c.sess.View(), err)
		}
		view, err := c.send(ctx)
		return reply(view, err)

	case "reset":
		return reply(c.sess.Reset(), nil)

	case "voice":
		view, err := c.sess.SelectVoice(req.Arg)
		return reply(view, err)

	case "view", "history":
		return reply(c.sess.View(), nil)
	}

	log.Warn("Unknown command", "cmd", req.Cmd)
	return ipc.Reply{Error: fmt.Sprintf("unknown command %q", req.Cmd)}
}

func (c *Controller) record(ctx context.Context) (guide.View, error) {
	if c.rec == nil {
		return c.sess.View(), errors.New("microphone disabled: start the daemon with --mic")
	}

	c.player.Cue()
	log.Info("Listening")

	clip, err := c.rec.Record(ctx)
	if err != nil {
		return c.sess.View(), fmt.Errorf("record: %w", err)
	}
	if clip.Empty() {
		return c.sess.View(), errors.New("nothing was recorded")
	}

	log.Info("Recorded", "bytes", len(clip.Data))
	return c.sess.Capture(clip), nil
}

func (c *Controller) send(ctx context.Context) (guide.View, error) {
	view, err := c.sess.Send(ctx)
	if err != nil {
		return view, err
	}

	if t := view.Turn; t != nil && len(t.Audio) > 0 {
		clip := audio.Clip{Data: t.Audio, Format: t.AudioFormat}
		if err := c.player.Play(ctx, clip); err != nil {
			log.Error("Failed to play answer", "err", err)
			t.Error = fmt.Sprintf("Playback failed: %v", err)
		}
	}
	return view, nil
}

func reply(view guide.View, err error) ipc.Reply {
	if view.Turn != nil {
		view.Turn.Audio = nil
	}

	rep := ipc.Reply{OK: err == nil, View: &view}
	if err != nil {
		rep.Error = err.Error()
	}
	if view.Turn != nil && view.Turn.Error != "" {
		rep.OK = false
		rep.Error = view.Turn.Error
	}
	return rep
}
