//go:build opus
// +build opus

package audioconv

import (
	"io"

	popus "github.com/pekim/opus"
)

const opusRate = 48000

func decodeOggOpus(r io.ReadSeeker) ([]float32, int, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Destroy()

	ch := dec.ChannelCount()
	if ch <= 0 {
		ch = 1
	}

	var (
		pcm []int16
		buf = make([]int16, opusRate*ch/2)
	)
	for {
		n, err := dec.Read(buf) // samples per channel
		pcm = append(pcm, buf[:n*ch]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}

	return toMono(pcm, ch, 32768), opusRate, nil
}
