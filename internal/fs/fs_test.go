package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	root := t.TempDir()
	r, err := NewPathResolver(root)
	if err != nil {
		t.Fatal(err)
	}

	root = r.Root()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain file", in: "a.txt", want: filepath.Join(root, "a.txt")},
		{name: "nested", in: "src/pkg/b.go", want: filepath.Join(root, "src", "pkg", "b.go")},
		{name: "dot prefix", in: "./c.go", want: filepath.Join(root, "c.go")},
		{name: "absolute", in: "/etc/passwd", wantErr: true},
		{name: "parent", in: "../x", wantErr: true},
		{name: "inner parent", in: "a/../../x", wantErr: true},
		{name: "inner parent that stays inside", in: "a/../b", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Fatalf("expected ErrUnsafePath, got %v (path %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileActionAndEnsureParentDir(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "deep", "dir", "f.txt")
	if got := FileAction(target); got != "create" {
		t.Errorf("expected create, got %s", got)
	}
	if err := EnsureParentDir(target); err != nil {
		t.Fatalf("EnsureParentDir failed: %v", err)
	}
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := FileAction(target); got != "modify" {
		t.Errorf("expected modify, got %s", got)
	}
}

func TestIsText(t *testing.T) {
	if !IsText([]byte("hello\nworld")) {
		t.Error("plain text should be text")
	}
	if IsText([]byte{'a', 0, 'b'}) {
		t.Error("NUL byte should mark binary")
	}
	if IsText([]byte{0xff, 0xfe, 0xfd}) {
		t.Error("invalid UTF-8 should not be text")
	}
}

func TestResolveSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	r, err := NewPathResolver(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "inner"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0644); err != nil {
		t.Fatal(err)
	}
	links := map[string]string{
		"out":      outside,
		"innerdir": filepath.Join(root, "inner"),
		"file":     filepath.Join(outside, "secret.txt"),
		"dangling": filepath.Join(outside, "missing.txt"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(root, name)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "directory link outside root", in: "out/escaped.txt", wantErr: true},
		{name: "nested below outside link", in: "out/a/b/c.txt", wantErr: true},
		{name: "file link outside root", in: "file", wantErr: true},
		{name: "dangling link", in: "dangling", wantErr: true},
		{name: "link that stays inside", in: "innerdir/ok.txt"},
		{name: "new directories", in: "new/dir/ok.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.in)
			if tt.wantErr && !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("expected ErrUnsafePath, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewPathResolverFollowsRootLink(t *testing.T) {
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "root")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	r, err := NewPathResolver(link)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(target)
	if r.Root() != want {
		t.Errorf("Root() = %q, want %q", r.Root(), want)
	}
	if _, err := r.Resolve("a.txt"); err != nil {
		t.Errorf("Resolve under a linked root failed: %v", err)
	}
}
