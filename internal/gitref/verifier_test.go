package gitref

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// gitRepo creates a repository with two commits on main and returns its
// directory plus both full SHAs.
func gitRepo(t *testing.T) (dir, first, second string) {
	t.Helper()
	dir = t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	commit := func(content, msg string) string {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("file.txt"); err != nil {
			t.Fatal(err)
		}
		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		if err != nil {
			t.Fatal(err)
		}
		return hash.String()
	}

	first = commit("one", "first")
	second = commit("two", "second")

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), head.Hash())); err != nil {
		t.Fatal(err)
	}
	return dir, first, second
}

func TestVerify_SingleCommit(t *testing.T) {
	dir, first, second := gitRepo(t)
	v := NewVerifier(dir)
	ctx := context.Background()

	tests := []struct {
		ref  string
		want string
	}{
		{"HEAD", second},
		{"HEAD~1", first},
		{"feature", second},
		{first, first},
		{"  " + second + "  ", second},
	}
	for _, tt := range tests {
		got, err := v.Verify(ctx, tt.ref)
		if err != nil {
			t.Errorf("Verify(%q) error: %v", tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Verify(%q) = %s, want %s", tt.ref, got, tt.want)
		}
	}
}

func TestVerify_FromSubdirectory(t *testing.T) {
	dir, _, second := gitRepo(t)
	sub := filepath.Join(dir, "nested", "deeper")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := NewVerifier(sub).Verify(context.Background(), "HEAD")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != second {
		t.Errorf("Verify = %s, want %s", got, second)
	}
}

func TestVerify_Range(t *testing.T) {
	dir, first, second := gitRepo(t)
	v := NewVerifier(dir)

	got, err := v.Verify(context.Background(), "HEAD~1..feature")
	if err != nil {
		t.Fatalf("Verify range error: %v", err)
	}
	if want := first + ".." + second; got != want {
		t.Errorf("Verify = %s, want %s", got, want)
	}
	if !IsRange(got) {
		t.Error("IsRange should recognize the normalized range")
	}
}

func TestVerify_Rejects(t *testing.T) {
	dir, _, _ := gitRepo(t)
	v := NewVerifier(dir)

	for _, ref := range []string{
		"", "nope", "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		"HEAD..", "..HEAD", "HEAD...HEAD~1", "--all", "HEAD..nope",
	} {
		_, err := v.Verify(context.Background(), ref)
		if !errors.Is(err, ErrUnknownRevision) {
			t.Errorf("Verify(%q) err = %v, want ErrUnknownRevision", ref, err)
		}
	}
}

func TestVerify_NotARepository(t *testing.T) {
	v := NewVerifier(t.TempDir())
	if _, err := v.Verify(context.Background(), "HEAD"); !errors.Is(err, ErrNotRepository) {
		t.Errorf("err = %v, want ErrNotRepository", err)
	}
}

func TestVerify_CanceledContext(t *testing.T) {
	dir, _, _ := gitRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewVerifier(dir).Verify(ctx, "HEAD"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
