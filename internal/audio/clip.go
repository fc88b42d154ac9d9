package audio

import (
	"errors"
	"strings"
)

// Format tags the encoding of a Clip. Clips are never inspected by the
// pipeline, the tag only travels with the bytes.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatWebM Format = "webm"
)

var ErrEmptyClip = errors.New("empty audio clip")

type Clip struct {
	Data   []byte
	Format Format
}

func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// Filename is the logical name handed to upload APIs as a format hint.
func (c Clip) Filename(base string) string {
	return base + "." + string(c.Format.orDefault())
}

func (f Format) MIME() string {
	switch f.orDefault() {
	case FormatMP3:
		return "audio/mpeg"
	case FormatOGG:
		return "audio/ogg"
	case FormatWebM:
		return "audio/webm"
	default:
		return "audio/wav"
	}
}

func (f Format) orDefault() Format {
	if f == "" {
		return FormatWAV
	}
	return f
}

// ParseFormat accepts a bare tag, a file extension or a MIME type.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, ".")
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.TrimPrefix(s, "audio/")

	switch s {
	case "wav", "wave", "x-wav":
		return FormatWAV, true
	case "mp3", "mpeg":
		return FormatMP3, true
	case "ogg", "oga", "opus":
		return FormatOGG, true
	case "webm":
		return FormatWebM, true
	}
	return "", false
}
