package result

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	l.now = fixedClock
	return l, dir
}

func readOnlyArtifact(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRecordSuccess(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Record("0f3ab1c2-dead-beef-0000-000000000000", "GRECEIVER", 250_000_000, true, "")

	got := readOnlyArtifact(t, dir)
	want := "2025-03-14T09:26:53Z - Transaction to GRECEIVER for 25.0000000 XLM: Success\n"
	if got != want {
		t.Errorf("artifact = %q, want %q", got, want)
	}
}

func TestRecordFailure(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Record("0f3ab1c2-dead-beef-0000-000000000000", "GRECEIVER", 10_000_000, false,
		"network busy: fee cap 2000 exceeded")

	got := readOnlyArtifact(t, dir)
	if !strings.Contains(got, "Failed - network busy: fee cap 2000 exceeded") {
		t.Errorf("artifact = %q, want failure reason included", got)
	}
}

func TestRecordArtifactName(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Record("0f3ab1c2-dead-beef-0000-000000000000", "GRECEIVER", 1, true, "")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(entries))
	}
	want := "forward_2025-03-14_09-26-53_0f3ab1c2.log"
	if entries[0].Name() != want {
		t.Errorf("artifact name = %q, want %q", entries[0].Name(), want)
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	if _, err := New(dir); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("log path is not a directory")
	}
}
