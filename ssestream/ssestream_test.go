package ssestream

import (
	"strings"
	"testing"
)

func TestFrame(t *testing.T) {
	got := string(Frame([]byte(`{"a":1}`)))
	if got != "data: {\"a\":1}\n\n" {
		t.Errorf("Frame = %q", got)
	}
}

func TestPassThrough(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"already framed keeps prefix", "data: {\"delta\":\"x\"}", "data: {\"delta\":\"x\"}\n\n"},
		{"bare line gets wrapped", "raw chunk", "data: raw chunk\n\n"},
		{"done sentinel passes through", "data: [DONE]", "data: [DONE]\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(PassThrough(tt.line))
			if got != tt.want {
				t.Errorf("PassThrough(%q) = %q, want %q", tt.line, got, tt.want)
			}
			if strings.Contains(got, "data: data: ") {
				t.Errorf("double-prefixed frame: %q", got)
			}
		})
	}
}

func TestErrorFrame(t *testing.T) {
	got := string(ErrorFrame("n8n webhook error: overloaded"))
	want := "data: {\"error\":\"n8n webhook error: overloaded\"}\n\n"
	if got != want {
		t.Errorf("ErrorFrame = %q, want %q", got, want)
	}
}

func TestDoneFrame(t *testing.T) {
	if got := string(DoneFrame()); got != "data: [DONE]\n\n" {
		t.Errorf("DoneFrame = %q", got)
	}
}

func TestNewLineScanner(t *testing.T) {
	input := "line one\nline two\r\n\nfinal without newline"
	scanner := NewLineScanner(strings.NewReader(input))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}

	want := []string{"line one", "line two\r", "", "final without newline"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestNewLineScannerLongLine(t *testing.T) {
	long := strings.Repeat("x", 20000)
	scanner := NewLineScanner(strings.NewReader("data: " + long + "\n"))
	if !scanner.Scan() {
		t.Fatalf("scan failed: %v", scanner.Err())
	}
	if len(scanner.Text()) != len("data: ")+20000 {
		t.Errorf("long line truncated to %d bytes", len(scanner.Text()))
	}
}
