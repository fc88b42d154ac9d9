//go:build !opus
// +build !opus

package audioconv

import (
	"errors"
	"io"
)

func decodeOggOpus(_ io.ReadSeeker) ([]float32, int, error) {
	return nil, 0, errors.New("ogg/opus decoding not available: rebuild with -tags opus")
}
