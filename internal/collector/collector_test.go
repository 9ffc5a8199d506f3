package collector

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sokinpui/gpt.go/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newObserved() (*Collector, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(16000, zap.New(core)), logs
}

func TestLineRange(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, notes, "one\ntwo\nthree\nfour\nfive\n")
	c, logs := newObserved()

	blocks, err := c.Blocks([]string{notes + "[2:3]"})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	want := []model.FileBlock{{Path: notes, Content: "two\nthree\n"}}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}

	blocks, err = c.Blocks([]string{notes + "[10:20]"})
	if err != nil {
		t.Fatalf("out of bounds range must not fail: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected empty extraction, got %#v", blocks)
	}
	if logs.FilterMessage("Line range out of bounds").Len() != 1 {
		t.Errorf("expected an out of bounds warning, got %v", logs.All())
	}
}

func TestLineRangeEdgeCases(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, notes, "one\ntwo\nthree")
	c, _ := newObserved()

	tests := []struct {
		spec string
		want string
	}{
		{spec: notes + "[1:1]", want: "one\n"},
		{spec: notes + "[3:3]", want: "three"},
		{spec: notes + "[0:2]", want: ""},
		{spec: notes + "[3:2]", want: ""},
		{spec: notes + "[a:b]", want: ""},
		{spec: notes + "[1:]", want: ""},
		{spec: filepath.Join(dir, "missing.txt") + "[1:2]", want: ""},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.spec), func(t *testing.T) {
			blocks, err := c.Blocks([]string{tt.spec})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ""
			if len(blocks) == 1 {
				got = blocks[0].Content
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectRendersFileTags(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.go")
	writeFile(t, a, "package a")
	c, _ := newObserved()

	got, err := c.Collect([]string{a})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := "\n<file:" + a + ">\npackage a\n</file>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDirectoryRecursion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "sub", "deeper", "c.txt"), "c")
	c, _ := newObserved()

	blocks, err := c.Blocks([]string{dir})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	var contents []string
	for _, b := range blocks {
		contents = append(contents, b.Content)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, contents); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestOversizedAndBinaryFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.txt")
	bin := filepath.Join(dir, "blob.bin")
	small := filepath.Join(dir, "small.txt")
	writeFile(t, big, strings.Repeat("x", 16001))
	writeFile(t, bin, "ab\x00cd")
	writeFile(t, small, "ok")
	c, logs := newObserved()

	blocks, err := c.Blocks([]string{big, bin, small})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	want := []model.FileBlock{{Path: small, Content: "ok"}}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("Skipping file as it is too large").Len() != 1 {
		t.Error("expected a too large warning")
	}
	if logs.FilterMessage("Skipping binary file").Len() != 1 {
		t.Error("expected a binary file warning")
	}
}

func TestExactlyMaxCharsIsKept(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "edge.txt")
	writeFile(t, f, strings.Repeat("é", 16000))
	c, _ := newObserved()

	blocks, err := c.Blocks([]string{f})
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected file at the cap to be kept, got %d blocks", len(blocks))
	}
}

func TestInvalidPath(t *testing.T) {
	c, _ := newObserved()
	_, err := c.Collect([]string{filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestBracketDirectoryIsAPath(t *testing.T) {
	dir := t.TempDir()
	route := filepath.Join(dir, "[id]")
	writeFile(t, filepath.Join(route, "page.tsx"), "export {}")
	c, _ := newObserved()

	blocks, err := c.Blocks([]string{route})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "export {}" {
		t.Errorf("unexpected blocks: %#v", blocks)
	}
}

func TestReversedRangeWarns(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, notes, "one\ntwo\nthree\n")
	c, logs := newObserved()

	blocks, err := c.Blocks([]string{notes + "[3:2]"})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected empty extraction, got %#v", blocks)
	}
	if logs.FilterMessage("Invalid line range").FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Errorf("expected an invalid range warning, got %v", logs.All())
	}
}

func TestDanglingSymlinkIsSkipped(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	writeFile(t, good, "readable")
	if err := os.Symlink("missing", filepath.Join(dir, "bad")); err != nil {
		t.Fatal(err)
	}
	c, logs := newObserved()

	blocks, err := c.Blocks([]string{dir})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	want := []model.FileBlock{{Path: good, Content: "readable"}}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("Skipping symlink").Len() != 1 {
		t.Errorf("expected one symlink warning, got %v", logs.All())
	}
}

func TestSymlinkToDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	if err := os.Symlink(t.TempDir(), filepath.Join(dir, "linked")); err != nil {
		t.Fatal(err)
	}
	c, logs := newObserved()

	blocks, err := c.Blocks([]string{dir})
	if err != nil {
		t.Fatalf("Blocks failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Content != "a" {
		t.Errorf("unexpected blocks: %#v", blocks)
	}
	if logs.FilterMessage("Skipping symlink").Len() != 1 {
		t.Errorf("expected one symlink warning, got %v", logs.All())
	}
}
