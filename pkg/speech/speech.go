// Package speech provides transcript types and speaker annotation on top of
// [github.com/haivivi/voiceid/pkg/voiceprint].
//
// # Transcripts
//
// A [Transcript] is an ordered sequence of [Segment] values, each covering a
// time range of the source audio with its recognized text. Transcribers
// (ASR backends) produce unannotated transcripts; the [Annotator] then labels
// each segment with the enrolled speaker whose voiceprint best matches the
// segment's audio.
//
// # Transcriber registry
//
// ASR backends register themselves by name with [Handle] or [HandleFunc],
// usually from an init function, and callers transcribe through
// [Transcribe] without importing the backend package directly.
package speech

import (
	"fmt"
	"strings"
	"time"
)

// UnknownSpeaker is the name assigned to segments whose voice matches no
// enrolled speaker.
const UnknownSpeaker = "unknown"

// Segment is one time-aligned piece of a transcript.
type Segment struct {
	// Start and End delimit the segment within the source audio.
	Start time.Duration
	End   time.Duration

	// Text is the recognized text.
	Text string

	// SpeakerID and SpeakerName identify the speaker when annotation
	// matched one; otherwise SpeakerID is empty and SpeakerName is
	// UnknownSpeaker (or empty if the segment was never annotated).
	SpeakerID   string
	SpeakerName string

	// Score is the similarity score of the speaker match, 0 when
	// unmatched.
	Score float32
}

// Transcript is an ordered sequence of segments.
type Transcript []Segment

// String renders the transcript one segment per line, prefixed with the
// speaker name when present.
func (t Transcript) String() string {
	var b strings.Builder
	for _, seg := range t {
		if seg.SpeakerName != "" {
			fmt.Fprintf(&b, "[%s] %s\n", seg.SpeakerName, seg.Text)
		} else {
			fmt.Fprintf(&b, "%s\n", seg.Text)
		}
	}
	return b.String()
}

// Text returns the concatenated text of all segments, space-separated.
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t))
	for _, seg := range t {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
