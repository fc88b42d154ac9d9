package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"siloso/internal/guide"
	"siloso/internal/nlu"
	"siloso/internal/openaitest"
	"siloso/internal/server"
	"siloso/internal/tts"
	"siloso/internal/voice"
	"siloso/pkg/protocol"
	"siloso/pkg/stt"
)

func newTestServer(t *testing.T) (*server.Server, *httptest.Server, *openaitest.Server) {
	t.Helper()

	ai := openaitest.NewServer()
	t.Cleanup(ai.Close)

	client := ai.Client()
	p := guide.NewPipeline(
		stt.NewRemote(client, ""),
		nlu.NewGenerator(client, ""),
		tts.NewSynthesizer(client, ""),
	)

	srv := server.New(":0", func(id string) *guide.Session {
		return guide.NewSession(id, guide.DefaultProfile(), p, voice.Default)
	})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, hs, ai
}

func dial(t *testing.T, hs *httptest.Server) (*protocol.WebSocket, guide.View) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, err := protocol.Dial(url, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	in := conn.Read()
	if in.Kind != protocol.READ_OK || in.Env.Kind != protocol.KindRender {
		t.Fatalf("initial render: %+v", in)
	}
	var v guide.View
	if err := in.Env.DecodeView(&v); err != nil {
		t.Fatalf("decode initial view: %v", err)
	}
	return conn, v
}

func call(t *testing.T, conn *protocol.WebSocket, env *protocol.Envelope) (*protocol.Envelope, guide.View) {
	t.Helper()

	reply, err := conn.TransmitReceive(env)
	if err != nil {
		t.Fatalf("%s: %v", env.Kind, err)
	}
	var v guide.View
	if len(reply.View) > 0 {
		if err := reply.DecodeView(&v); err != nil {
			t.Fatalf("decode view: %v", err)
		}
	}
	return reply, v
}

func TestServer_InitialRender(t *testing.T) {
	_, hs, _ := newTestServer(t)

	_, v := dial(t, hs)

	if v.Title != "Fort Siloso Voice Guide" || v.SendEnabled || len(v.History) != 0 {
		t.Errorf("initial view: %+v", v)
	}
	if v.Session == "" {
		t.Error("session id missing")
	}
}

func TestServer_CaptureThenSend(t *testing.T) {
	_, hs, _ := newTestServer(t)
	conn, _ := dial(t, hs)

	reply, v := call(t, conn, &protocol.Envelope{Kind: protocol.KindSend})
	if reply.Kind != protocol.KindError || !strings.Contains(reply.Content, "no recording") {
		t.Fatalf("send without clip: %+v", reply)
	}
	if v.SendEnabled {
		t.Error("send must stay disabled")
	}

	_, v = call(t, conn, &protocol.Envelope{Kind: protocol.KindCapture, Audio: []byte("RIFF....WAVE"), Format: "audio/wav"})
	if !v.SendEnabled {
		t.Fatal("capture should enable send")
	}

	reply, v = call(t, conn, &protocol.Envelope{Kind: protocol.KindSend})
	if reply.Kind != protocol.KindRender {
		t.Fatalf("send: %+v", reply)
	}
	if v.Turn == nil || v.Turn.Answer != "It depicts the 1942 British surrender..." || len(v.Turn.Audio) == 0 {
		t.Fatalf("turn: %+v", v.Turn)
	}
	if len(v.History) != 2 {
		t.Errorf("history: %+v", v.History)
	}
}

func TestServer_AskWithoutAudioKeepsPendingClip(t *testing.T) {
	_, hs, ai := newTestServer(t)
	conn, _ := dial(t, hs)

	_, v := call(t, conn, &protocol.Envelope{Kind: protocol.KindCapture, Audio: []byte("RIFF....WAVE"), Format: "wav"})
	if !v.SendEnabled {
		t.Fatal("capture should enable send")
	}

	reply, v := call(t, conn, &protocol.Envelope{Kind: protocol.KindAsk})
	if reply.Kind != protocol.KindError || !strings.Contains(reply.Content, "no recording") {
		t.Fatalf("ask without audio: %+v", reply)
	}
	if v.Turn != nil {
		t.Errorf("no turn expected, got %+v", v.Turn)
	}
	if n := len(ai.UploadRequests()); n != 0 {
		t.Errorf("transcriber called %d times for an ask without audio", n)
	}
	if !v.SendEnabled {
		t.Error("earlier capture should still be pending")
	}
}

func TestServer_AskVoiceReset(t *testing.T) {
	_, hs, ai := newTestServer(t)
	conn, _ := dial(t, hs)

	reply, _ := call(t, conn, &protocol.Envelope{Kind: protocol.KindVoice, Content: "robot"})
	if reply.Kind != protocol.KindError {
		t.Errorf("unknown voice should fail: %+v", reply)
	}

	_, v := call(t, conn, &protocol.Envelope{Kind: protocol.KindVoice, Content: "shimmer"})
	if v.Voice != voice.Shimmer {
		t.Errorf("voice: %q", v.Voice)
	}

	_, v = call(t, conn, &protocol.Envelope{Kind: protocol.KindAsk, Audio: []byte("RIFF....WAVE")})
	if v.Turn == nil || v.Turn.Error != "" {
		t.Fatalf("ask: %+v", v.Turn)
	}
	if sp := ai.SpeechRequests(); len(sp) != 1 || sp[0].Voice != "shimmer" {
		t.Errorf("speech: %+v", sp)
	}
	if up := ai.UploadRequests(); len(up) != 1 || up[0].Filename != "question.wav" {
		t.Errorf("sniffed upload: %+v", up)
	}

	_, v = call(t, conn, &protocol.Envelope{Kind: protocol.KindReset})
	if len(v.History) != 0 || v.Turn != nil {
		t.Errorf("after reset: %+v", v)
	}
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	srv, hs, _ := newTestServer(t)

	a, _ := dial(t, hs)
	b, _ := dial(t, hs)

	_, va := call(t, a, &protocol.Envelope{Kind: protocol.KindAsk, Audio: []byte("RIFF....WAVE")})
	_, vb := call(t, b, &protocol.Envelope{Kind: protocol.KindView})

	if len(va.History) != 2 || len(vb.History) != 0 {
		t.Errorf("histories leaked: a=%d b=%d", len(va.History), len(vb.History))
	}
	if va.Session == vb.Session {
		t.Error("sessions share an id")
	}
	if n := srv.Sessions(); n != 2 {
		t.Errorf("open sessions: %d", n)
	}
}

func TestServer_BadFrame(t *testing.T) {
	_, hs, _ := newTestServer(t)
	conn, _ := dial(t, hs)

	reply, _ := call(t, conn, &protocol.Envelope{Kind: protocol.KindRender})
	if reply.Kind != protocol.KindError {
		t.Errorf("render from client should be rejected: %+v", reply)
	}
}

func TestServer_Health(t *testing.T) {
	_, hs, _ := newTestServer(t)

	resp, err := http.Get(hs.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var h struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if resp.StatusCode != http.StatusOK || h.Status != "ok" || h.Sessions != 0 {
		t.Errorf("health: %d %+v", resp.StatusCode, h)
	}
}

func TestDispatch(t *testing.T) {
	ai := openaitest.NewServer()
	defer ai.Close()

	client := ai.Client()
	p := guide.NewPipeline(stt.NewRemote(client, ""), nlu.NewGenerator(client, ""), tts.NewSynthesizer(client, ""))
	sess := guide.NewSession("s", guide.DefaultProfile(), p, "")

	env := server.Dispatch(context.Background(), sess, &protocol.Envelope{Kind: protocol.KindAsk})
	if env.Kind != protocol.KindError {
		t.Errorf("ask without audio should fail: %+v", env)
	}
	if len(ai.UploadRequests()) != 0 {
		t.Error("pipeline must not run without audio")
	}
}
