package collector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/websocket/v2"
)

type fakeMsg struct {
	kind int
	data []byte
}

// fakeConn replays a fixed message sequence, then reports the peer closing.
type fakeConn struct {
	msgs []fakeMsg
	next int
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	if f.next >= len(f.msgs) {
		return 0, nil, errors.New("connection closed")
	}
	m := f.msgs[f.next]
	f.next++
	return m.kind, m.data, nil
}

func recordingFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "recording-*.webm"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestCollectAppendsChunksInOrder(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	c.collect(&fakeConn{msgs: []fakeMsg{
		{websocket.BinaryMessage, []byte("aaa")},
		{websocket.BinaryMessage, []byte("bbb")},
		{websocket.BinaryMessage, []byte("ccc")},
	}})

	files := recordingFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("recording files = %d, want 1", len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if string(data) != "aaabbbccc" {
		t.Errorf("file content = %q, want chunks concatenated in order", data)
	}
}

func TestCollectSkipsNonBinaryAndEmptyMessages(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	c.collect(&fakeConn{msgs: []fakeMsg{
		{websocket.TextMessage, []byte("hello")},
		{websocket.BinaryMessage, nil},
		{websocket.BinaryMessage, []byte("data")},
	}})

	files := recordingFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("recording files = %d, want 1", len(files))
	}
	data, _ := os.ReadFile(files[0])
	if string(data) != "data" {
		t.Errorf("file content = %q, want only the binary chunk", data)
	}
}

func TestEmptyStreamLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	c.collect(&fakeConn{})

	if files := recordingFiles(t, dir); len(files) != 0 {
		t.Errorf("recording files = %d, want 0 for an empty stream", len(files))
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("empty directory should be rejected")
	}
}
