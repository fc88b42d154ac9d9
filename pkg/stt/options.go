package stt

// Options tune the local whisper transcriber.
type Options struct {
	Language      string // "auto", "en", ...
	TranslateToEn bool
	Threads       int // <=0 => NumCPU()
	InitialPrompt string
	BeamSize      int // 0 = greedy
	Temperature   float32
	MaxSamples    int // 0 = whole clip
}
