package logsource

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestStdinSourceStopClosesLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()

	select {
	case _, ok := <-src.Lines():
		if ok {
			t.Fatal("expected lines channel to be closed after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lines channel to close")
	}
}

func TestStdinSourceStopIsIdempotent(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer func() { _ = w.Close() }()

	src := newStdinSourceWithReader(context.Background(), r)
	src.Stop()
	src.Stop()
}

func TestStdinSourceDeliversLines(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	src := newStdinSourceWithReader(context.Background(), r)
	defer src.Stop()

	if _, err := w.WriteString("hello world\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()

	select {
	case env := <-src.Lines():
		if env.Line != "hello world" {
			t.Fatalf("line = %q, want %q", env.Line, "hello world")
		}
		if env.Source != "stdin" {
			t.Fatalf("source = %q, want %q", env.Source, "stdin")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for line")
	}
}
