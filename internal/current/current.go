// Package current tracks the stitch a developer is working on.
//
// The pointer is a one-line file under .stitch/. The lifecycle engine never
// reads it; commands that finish stitches clear it when the finish touched
// the pointed-to ID.
package current

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/stitch/internal/stitch"
)

// FileName is the pointer file inside the .stitch directory.
const FileName = "current"

// Path returns the pointer file location for a project root.
func Path(root string) string {
	return filepath.Join(stitch.StatePath(root), FileName)
}

// Get returns the current stitch ID, or "" when none is set.
func Get(root string) (string, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading current pointer: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set points at id.
func Set(root, id string) error {
	if err := stitch.ValidateID(id); err != nil {
		return err
	}
	return stitch.WriteFileAtomic(Path(root), []byte(id+"\n"))
}

// Clear removes the pointer. Clearing an unset pointer is a no-op.
func Clear(root string) error {
	if err := os.Remove(Path(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clearing current pointer: %w", err)
	}
	return nil
}

// ClearIf clears the pointer when touched reports true for its ID and
// returns the ID that was cleared, or "".
func ClearIf(root string, touched func(id string) bool) (string, error) {
	id, err := Get(root)
	if err != nil || id == "" || !touched(id) {
		return "", err
	}
	if err := Clear(root); err != nil {
		return "", err
	}
	return id, nil
}
