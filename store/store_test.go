package store

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRequestLogRecordAndCount(t *testing.T) {
	rl, err := Open(filepath.Join(t.TempDir(), "requests.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rl.Close()

	entries := []Entry{
		{UserEmail: "a@example.com", Model: "n8n-agent", Stream: true, Outcome: "ok", Duration: 1200 * time.Millisecond},
		{UserEmail: "b@example.com", Model: "n8n-agent", Stream: false, Outcome: "upstream_error", Duration: 40 * time.Millisecond},
	}
	for _, e := range entries {
		rl.Record(e)
	}

	n, err := rl.CountSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != int64(len(entries)) {
		t.Errorf("count = %d, want %d", n, len(entries))
	}
}

func TestRequestLogReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.db")

	rl, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rl.Record(Entry{UserEmail: "a@example.com", Model: "n8n-agent", Outcome: "ok"})
	rl.Close()

	// schema 初始化必须幂等,数据在重开后保留
	rl, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rl.Close()

	n, err := rl.CountSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 after reopen", n)
	}
}
