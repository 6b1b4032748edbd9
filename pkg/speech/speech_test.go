package speech_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haivivi/voiceid/pkg/speech"
)

func TestTranscriptString(t *testing.T) {
	tr := speech.Transcript{
		{Start: 0, End: time.Second, Text: "hello", SpeakerName: "Alice"},
		{Start: time.Second, End: 2 * time.Second, Text: "hi there"},
	}
	got := tr.String()
	want := "[Alice] hello\nhi there\n"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestTranscriptText(t *testing.T) {
	tr := speech.Transcript{
		{Text: "hello"},
		{Text: ""},
		{Text: "world"},
	}
	if got := tr.Text(); got != "hello world" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestMuxDispatch(t *testing.T) {
	mux := speech.NewMux()
	err := mux.HandleFunc("whisper", func(_ context.Context, samples []float32, language string) (speech.Transcript, error) {
		return speech.Transcript{{Text: language}}, nil
	})
	if err != nil {
		t.Fatalf("HandleFunc: %v", err)
	}

	tr, err := mux.Transcribe(context.Background(), "whisper", nil, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(tr) != 1 || tr[0].Text != "en" {
		t.Fatalf("transcript = %+v", tr)
	}
}

func TestMuxUnknownBackend(t *testing.T) {
	mux := speech.NewMux()
	_, err := mux.Transcribe(context.Background(), "nope", nil, "")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestMuxDuplicateRegistration(t *testing.T) {
	mux := speech.NewMux()
	f := speech.TranscribeFunc(func(context.Context, []float32, string) (speech.Transcript, error) {
		return nil, nil
	})
	if err := mux.HandleFunc("x", f); err != nil {
		t.Fatalf("first HandleFunc: %v", err)
	}
	if err := mux.HandleFunc("x", f); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestMuxPropagatesBackendError(t *testing.T) {
	mux := speech.NewMux()
	boom := errors.New("backend down")
	mux.HandleFunc("bad", func(context.Context, []float32, string) (speech.Transcript, error) {
		return nil, boom
	})
	if _, err := mux.Transcribe(context.Background(), "bad", nil, ""); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
