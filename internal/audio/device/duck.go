package device

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Ducker lowers other PulseAudio streams while the guide is speaking.
// Streams whose application.name is listed in own are left alone.
type Ducker struct {
	mu        sync.Mutex
	active    bool
	own       []string
	saved     map[int]int // sink input id -> volume before ducking
	minVolume int
}

func NewDucker(own []string, minVolume int) *Ducker {
	return &Ducker{
		own:       append([]string(nil), own...),
		saved:     make(map[int]int),
		minVolume: clampVolume(minVolume),
	}
}

// DuckOthers fades foreign streams to factor of their volume, never
// below the configured minimum.
func (d *Ducker) DuckOthers(ctx context.Context, factor float64, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := listSinkInputs(ctx)
	if err != nil {
		return err
	}

	d.saved = make(map[int]int)
	var targets []fade
	for _, in := range inputs {
		if d.isOwn(in) {
			continue
		}
		to := math.Max(float64(in.Volume)*factor, float64(d.minVolume))
		d.saved[in.ID] = in.Volume
		targets = append(targets, fade{id: in.ID, from: in.Volume, to: clampVolume(int(math.Round(to)))})
	}

	if err := fadeInputs(ctx, targets, dur); err != nil {
		return err
	}
	d.active = true
	return nil
}

// UnduckOthers restores the volumes saved by DuckOthers. Streams that
// appeared in between are not touched.
func (d *Ducker) UnduckOthers(ctx context.Context, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	inputs, err := listSinkInputs(ctx)
	if err != nil {
		return err
	}

	var targets []fade
	for _, in := range inputs {
		orig, ok := d.saved[in.ID]
		if !ok || d.isOwn(in) {
			continue
		}
		targets = append(targets, fade{id: in.ID, from: in.Volume, to: orig})
	}

	if err := fadeInputs(ctx, targets, dur); err != nil {
		return err
	}
	d.saved = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isOwn(in sinkInput) bool {
	for _, name := range d.own {
		if in.AppName == name {
			return true
		}
	}
	return false
}

func fadeInputs(ctx context.Context, targets []fade, dur time.Duration) error {
	if len(targets) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := int(dur / minStep)
	if steps < 1 {
		steps = 1
	}
	stepDur := dur / time.Duration(steps)

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, t := range targets {
			if err := setSinkInputVolume(ctx, t.id, t.at(i, steps)); err != nil {
				return fmt.Errorf("set volume id=%d: %w", t.id, err)
			}
		}

		if i < steps && stepDur > 0 {
			time.Sleep(stepDur)
		}
	}
	return nil
}

// at returns the volume for step i of n.
func (f fade) at(i, n int) int {
	if n <= 0 {
		return f.to
	}
	frac := float64(i) / float64(n)
	return int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolume {
		return maxVolume
	}
	return v
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads the output of `pactl list sink-inputs`.
func parseSinkInputs(text string) []sinkInput {
	parts := strings.Split(text, "Sink Input #")
	if len(parts) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range parts[1:] {
		nl := strings.IndexByte(block, '\n')
		if nl <= 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(block[:nl]))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(block[nl+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						in.Volume = v
					}
				}
			}

			if strings.HasPrefix(line, "application.name =") && in.AppName == "" {
				if _, rest, ok := strings.Cut(line, "\""); ok {
					if name, _, ok := strings.Cut(rest, "\""); ok {
						in.AppName = name
					}
				}
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}
	return res
}

func setSinkInputVolume(ctx context.Context, id int, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}
