package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/haivivi/voiceid/pkg/cli"
)

func TestOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	err := cli.Output(map[string]any{"speaker_id": "alice"}, cli.OutputOptions{
		Format: cli.FormatYAML,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(buf.String(), "speaker_id: alice") {
		t.Fatalf("yaml output = %q", buf.String())
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	err := cli.Output(map[string]any{"count": 3}, cli.OutputOptions{
		Format: cli.FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 3`) {
		t.Fatalf("json output = %q", buf.String())
	}
}

func TestOutputUnsupportedFormat(t *testing.T) {
	err := cli.Output(nil, cli.OutputOptions{Format: "xml", Writer: &bytes.Buffer{}})
	if err == nil {
		t.Fatal("unsupported format accepted")
	}
}

func TestTableAlignment(t *testing.T) {
	out := cli.Table(
		[]string{"ID", "NAME"},
		[][]string{
			{"alice", "Alice Smith"},
			{"b", "Bob"},
		},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	// Cells in one column start at the same offset.
	if strings.Index(lines[1], "Alice") != strings.Index(lines[2], "Bob") {
		t.Fatalf("misaligned table:\n%s", out)
	}
}
