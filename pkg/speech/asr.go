package speech

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMux is the default registry for ASR transcribers.
var DefaultMux = NewMux()

// Handle registers a Transcriber for the given name with the default mux.
func Handle(name string, transcriber Transcriber) error {
	return DefaultMux.Handle(name, transcriber)
}

// HandleFunc registers a TranscribeFunc for the given name with the default mux.
func HandleFunc(name string, f TranscribeFunc) error {
	return DefaultMux.HandleFunc(name, f)
}

// Transcribe transcribes PCM samples using the named backend from the default
// mux.
func Transcribe(ctx context.Context, name string, samples []float32, language string) (Transcript, error) {
	return DefaultMux.Transcribe(ctx, name, samples, language)
}

// Transcriber is the interface that wraps the Transcribe method.
type Transcriber interface {
	// Transcribe converts PCM samples into a time-aligned transcript.
	// language is a BCP 47 tag hint; "" lets the backend auto-detect.
	Transcribe(ctx context.Context, samples []float32, language string) (Transcript, error)
}

// TranscribeFunc is an adapter to allow the use of ordinary functions as
// Transcribers.
type TranscribeFunc func(ctx context.Context, samples []float32, language string) (Transcript, error)

// Transcribe calls the underlying function.
func (f TranscribeFunc) Transcribe(ctx context.Context, samples []float32, language string) (Transcript, error) {
	return f(ctx, samples, language)
}

// Mux routes transcription requests to the transcriber registered under a
// name. Registration typically happens at init time; lookups may run
// concurrently.
type Mux struct {
	mu       sync.RWMutex
	backends map[string]Transcriber
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{backends: make(map[string]Transcriber)}
}

// Handle registers a Transcriber for the given name. Registering the same
// name twice is an error.
func (m *Mux) Handle(name string, transcriber Transcriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.backends[name]; ok {
		return fmt.Errorf("speech: transcriber %q already registered", name)
	}
	m.backends[name] = transcriber
	return nil
}

// HandleFunc registers a TranscribeFunc for the given name.
func (m *Mux) HandleFunc(name string, f TranscribeFunc) error {
	return m.Handle(name, f)
}

// Transcribe dispatches to the transcriber registered for the given name.
func (m *Mux) Transcribe(ctx context.Context, name string, samples []float32, language string) (Transcript, error) {
	m.mu.RLock()
	transcriber, ok := m.backends[name]
	m.mu.RUnlock()
	if !ok || transcriber == nil {
		return nil, fmt.Errorf("speech: transcriber not found for %s", name)
	}
	return transcriber.Transcribe(ctx, samples, language)
}
