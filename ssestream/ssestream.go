// Package ssestream provides the Server-Sent-Events framing primitives used
// by the relay: frame construction for downstream writes and a line scanner
// for upstream bodies.
package ssestream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

var (
	defaultMaxBufSize = 1 << 15 // 32KB

	dataPrefix = []byte("data: ")
	frameEnd   = []byte("\n\n")
	doneFrame  = []byte("data: [DONE]\n\n")
)

// Frame wraps a payload as a single `data: <payload>\n\n` event.
func Frame(payload []byte) []byte {
	buf := make([]byte, 0, len(dataPrefix)+len(payload)+len(frameEnd))
	buf = append(buf, dataPrefix...)
	buf = append(buf, payload...)
	buf = append(buf, frameEnd...)
	return buf
}

// FrameJSON marshals v and wraps it as a single data frame.
func FrameJSON(v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(payload), nil
}

// ErrorFrame builds the in-band error event delivered to streaming clients
// that have already received a 200.
func ErrorFrame(message string) []byte {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return Frame(payload)
}

// DoneFrame returns the literal [DONE] sentinel terminating a completed
// chat-completion stream.
func DoneFrame() []byte {
	return append([]byte(nil), doneFrame...)
}

// HasDataPrefix reports whether an upstream line already carries SSE framing.
func HasDataPrefix(line string) bool {
	return strings.HasPrefix(line, string(dataPrefix))
}

// PassThrough re-frames one raw upstream line.
//
// Lines already prefixed with `data: ` keep their framing and only get the
// blank-line terminator appended; bare lines are wrapped as a data event.
// Never double-prefixes.
func PassThrough(line string) []byte {
	if HasDataPrefix(line) {
		return append([]byte(line), frameEnd...)
	}
	return Frame([]byte(line))
}

// NewLineScanner returns a scanner over an upstream body that yields one
// line per token with the buffer sized for long SSE data lines.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), defaultMaxBufSize)
	scanner.Split(scanLines)
	return scanner
}

// scanLines splits on \n like bufio.ScanLines but keeps \r handling local so
// trailing whitespace trimming stays the caller's decision.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[0:i], nil
	}
	// 在 EOF 处返回最后一段未终止的行
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
