package voice

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Voice string

const (
	Alloy   Voice = "alloy"
	Echo    Voice = "echo"
	Fable   Voice = "fable"
	Onyx    Voice = "onyx"
	Nova    Voice = "nova"
	Shimmer Voice = "shimmer"
)

const Default = Alloy

var ErrUnknown = errors.New("unknown voice")

var all = []Voice{Alloy, Echo, Fable, Onyx, Nova, Shimmer}

// All lists the selectable voices in display order.
func All() []Voice {
	return append([]Voice(nil), all...)
}

func Parse(s string) (Voice, error) {
	v := Voice(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(all, v) {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return v, nil
}

func (v Voice) String() string { return string(v) }
