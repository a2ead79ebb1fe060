package lifecycle

import (
	"fmt"
	"log"
)

// RawWriter is the byte-level access the write phase needs. The file
// store implements it; tests wrap it to inject failures.
type RawWriter interface {
	ReadRaw(id string) ([]byte, error)
	WriteRaw(id string, data []byte) error
}

// pendingWrite is one document's replacement content.
type pendingWrite struct {
	id       string
	original []byte
	updated  []byte
}

// commitAll writes every pending document in order. If a write fails,
// every document already written is restored to its original bytes
// (newest first) and the write error is returned. Restore failures are
// logged and swallowed so they never hide the error that caused them.
//
// Each pending write must carry its original content, captured before the
// first write began.
func commitAll(w RawWriter, writes []pendingWrite) error {
	for i, pw := range writes {
		if err := w.WriteRaw(pw.id, pw.updated); err != nil {
			rollback(w, writes[:i])
			return fmt.Errorf("%w: stitch %s (%d of %d, earlier writes restored): %w",
				ErrIO, pw.id, i+1, len(writes), err)
		}
	}
	return nil
}

// rollback restores written documents to their captured originals.
func rollback(w RawWriter, written []pendingWrite) {
	for i := len(written) - 1; i >= 0; i-- {
		pw := written[i]
		if err := w.WriteRaw(pw.id, pw.original); err != nil {
			log.Printf("WARNING: rollback: restoring stitch %s: %v", pw.id, err)
		}
	}
}
