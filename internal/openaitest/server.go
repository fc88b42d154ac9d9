// Package openaitest fakes the three OpenAI endpoints the guide talks to.
package openaitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type SpeechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

type Upload struct {
	Model       string
	Filename    string
	ContentType string
	Size        int
}

// Server answers with canned values. A non-empty *Err field makes the
// matching endpoint fail with that message.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	Transcript    string
	TranscribeErr string
	Answer        string
	AnswerErr     string
	Speech        []byte
	SpeechErr     string

	Uploads  []Upload
	Chats    []ChatRequest
	Speeches []SpeechRequest
}

func NewServer() *Server {
	s := &Server{
		Transcript: "What is the Surrender Chamber?",
		Answer:     "It depicts the 1942 British surrender...",
		Speech:     []byte("ID3\x04\x00fake-mp3"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /audio/transcriptions", s.handleTranscription)
	mux.HandleFunc("POST /chat/completions", s.handleChat)
	mux.HandleFunc("POST /audio/speech", s.handleSpeech)
	s.Server = httptest.NewServer(mux)
	return s
}

// Client returns an OpenAI client bound to the fake, with retries off.
func (s *Server) Client() openai.Client {
	return openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(s.URL+"/"),
		option.WithMaxRetries(0),
	)
}

func (s *Server) Set(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Server) ChatRequests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.Chats...)
}

func (s *Server) SpeechRequests() []SpeechRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpeechRequest(nil), s.Speeches...)
}

func (s *Server) UploadRequests() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.Uploads...)
}

func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	up := Upload{Model: r.FormValue("model")}
	if f, hdr, err := r.FormFile("file"); err == nil {
		data, _ := io.ReadAll(f)
		f.Close()
		up.Filename = hdr.Filename
		up.ContentType = hdr.Header.Get("Content-Type")
		up.Size = len(data)
	}

	s.mu.Lock()
	s.Uploads = append(s.Uploads, up)
	text, fail := s.Transcript, s.TranscribeErr
	s.mu.Unlock()

	if fail != "" {
		writeError(w, http.StatusBadRequest, fail)
		return
	}
	writeJSON(w, map[string]any{"text": text})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.Chats = append(s.Chats, req)
	answer, fail := s.Answer, s.AnswerErr
	s.mu.Unlock()

	if fail != "" {
		writeError(w, http.StatusInternalServerError, fail)
		return
	}

	writeJSON(w, map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": answer,
			},
		}},
	})
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.Speeches = append(s.Speeches, req)
	data, fail := s.Speech, s.SpeechErr
	s.mu.Unlock()

	if fail != "" {
		writeError(w, http.StatusBadRequest, fail)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "invalid_request_error",
		},
	})
}
