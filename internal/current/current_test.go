package current

import (
	"os"
	"testing"
)

func TestGetSetClear(t *testing.T) {
	root := t.TempDir()

	id, err := Get(root)
	if err != nil || id != "" {
		t.Fatalf("Get on fresh root = %q, %v; want empty, nil", id, err)
	}

	if err := Set(root, "0199abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if id, _ := Get(root); id != "0199abc" {
		t.Errorf("Get = %q, want 0199abc", id)
	}

	if err := Clear(root); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := Clear(root); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if _, err := os.Stat(Path(root)); !os.IsNotExist(err) {
		t.Error("pointer file should be gone")
	}
}

func TestSet_RejectsInvalidID(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"", "../escape", "a/b"} {
		if err := Set(root, id); err == nil {
			t.Errorf("Set(%q) should fail", id)
		}
	}
}

func TestClearIf(t *testing.T) {
	root := t.TempDir()
	if err := Set(root, "x"); err != nil {
		t.Fatal(err)
	}

	cleared, err := ClearIf(root, func(id string) bool { return id == "y" })
	if err != nil || cleared != "" {
		t.Fatalf("ClearIf(untouched) = %q, %v", cleared, err)
	}
	if id, _ := Get(root); id != "x" {
		t.Errorf("pointer should survive, got %q", id)
	}

	cleared, err = ClearIf(root, func(id string) bool { return id == "x" })
	if err != nil || cleared != "x" {
		t.Fatalf("ClearIf(touched) = %q, %v", cleared, err)
	}
	if id, _ := Get(root); id != "" {
		t.Errorf("pointer should be cleared, got %q", id)
	}

	cleared, err = ClearIf(root, func(string) bool { return true })
	if err != nil || cleared != "" {
		t.Errorf("ClearIf(unset) = %q, %v", cleared, err)
	}
}
