// Package lifecycle finishes stitches: it decides the status to apply,
// finds every descendant that has to follow, and writes the whole subtree
// as one all-or-nothing operation.
//
// The flow is split in two so interactive callers can show what will
// happen before anything is written:
//
//	preview, err := engine.Prepare(ctx, id, opts) // pure, no writes
//	// ...render preview, ask for confirmation if preview.RequiresConfirmation...
//	result, err := engine.Execute(ctx, preview, ExecuteOptions{})
//
// Finish composes both for callers that skip confirmation.
//
// The engine knows nothing about a "current stitch". Callers that keep
// such a pointer check Result.Touches and clear it themselves.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/HendryAvila/stitch/internal/stitch"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// DocumentStore is the slice of the stitch store the engine consumes.
type DocumentStore interface {
	Load(id string) (*stitch.Stitch, error)
	Exists(id string) bool
	RawWriter
}

// DescendantFinder answers "all descendants of id".
type DescendantFinder interface {
	Descendants(ctx context.Context, id string) ([]string, error)
}

// FinishObserver is notified after a finish has been written.
// It's an optional dependency; the engine works fine without one.
type FinishObserver interface {
	OnFinish(ctx context.Context, res *Result) error
}

// Options are the caller's inputs to Prepare.
type Options struct {
	// Status is the requested terminal status. Empty lets auto-detection
	// pick between the default status and abandoned.
	Status stitch.Status
	// SupersededBy names the stitch replacing the target. Only valid with
	// Status superseded.
	SupersededBy string
	// Force keeps the requested status even when auto-detection disagrees.
	Force bool
}

// ExecuteOptions are the caller's inputs to Execute.
type ExecuteOptions struct {
	// Force overrides a ForceRequired preview.
	Force bool
	// SupersededBy may be supplied here instead of at Prepare time.
	SupersededBy string
}

// Preview is the side-effect-free result of Prepare.
type Preview struct {
	Target *stitch.Stitch
	// Descendants are every loadable descendant, in breadth-first order.
	Descendants []*stitch.Stitch
	// Affected is the target plus each descendant whose status differs
	// from FinalStatus. These are the documents Execute writes.
	Affected []*stitch.Stitch

	RequestedStatus stitch.Status
	FinalStatus     stitch.Status
	AutoDetected    bool
	// ForceRequired explains why Execute will refuse without Force.
	// Empty means no override is needed.
	ForceRequired        string
	Warnings             []string
	RequiresConfirmation bool

	SupersededBy string
	Force        bool
}

// FinishedStitch records one document's status change.
type FinishedStitch struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	PreviousStatus stitch.Status `json:"previous_status"`
	NewStatus      stitch.Status `json:"new_status"`
}

// Result is returned by a successful Execute.
type Result struct {
	OperationID  string           `json:"operation_id"`
	TargetID     string           `json:"target_id"`
	Finished     []FinishedStitch `json:"finished"`
	Warnings     []string         `json:"warnings,omitempty"`
	AutoDetected bool             `json:"auto_detected"`
	Forced       bool             `json:"forced"`
	FinalStatus  stitch.Status    `json:"final_status"`
	SupersededBy string           `json:"superseded_by,omitempty"`
	FinishedAt   string           `json:"finished_at"`
}

// Touches reports whether id was written by this finish.
func (r *Result) Touches(id string) bool {
	for _, f := range r.Finished {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Engine applies finish operations to stitches.
type Engine struct {
	store         DocumentStore
	index         DescendantFinder
	locks         *Locker
	observer      FinishObserver
	defaultStatus stitch.Status
}

// New creates an Engine over the given store and index.
func New(store DocumentStore, index DescendantFinder) *Engine {
	return &Engine{
		store:         store,
		index:         index,
		locks:         NewLocker(),
		defaultStatus: stitch.StatusClosed,
	}
}

// SetObserver injects an optional FinishObserver.
func (e *Engine) SetObserver(obs FinishObserver) { e.observer = obs }

// SetDefaultStatus sets the status used when a caller requests none and
// auto-detection finds nothing wrong.
func (e *Engine) SetDefaultStatus(s stitch.Status) error {
	if !s.IsTerminal() {
		return fmt.Errorf("%w: default finish status must be terminal, got %q", ErrInvalidStatus, s)
	}
	e.defaultStatus = s
	return nil
}

// Locks exposes the per-ID locker so other mutations of a stitch
// serialize with finishes.
func (e *Engine) Locks() *Locker { return e.locks }

// Prepare computes what finishing id with opts would do. It never writes.
func (e *Engine) Prepare(ctx context.Context, id string, opts Options) (*Preview, error) {
	if opts.Status != "" && !opts.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot finish %q as %q (want closed, superseded, or abandoned)",
			ErrInvalidStatus, id, opts.Status)
	}
	if err := e.validateSupersede(id, opts.Status, opts.SupersededBy); err != nil {
		return nil, err
	}

	target, err := e.load(id)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Target:          target,
		RequestedStatus: opts.Status,
		SupersededBy:    opts.SupersededBy,
		Force:           opts.Force,
	}

	descIDs, err := e.index.Descendants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding descendants of %q: %w", id, err)
	}
	for _, did := range descIDs {
		d, err := e.store.Load(did)
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("skipping descendant %s: %v", did, err))
			log.Printf("WARNING: finish %s: skipping descendant %s: %v", id, did, err)
			continue
		}
		p.Descendants = append(p.Descendants, d)
	}

	e.resolve(p)

	note, err := checkFinish(target.ID, target.Status, p.FinalStatus)
	if err != nil {
		return nil, err
	}
	if note != "" {
		p.Warnings = append(p.Warnings, note)
	}

	p.Affected = []*stitch.Stitch{target}
	for _, d := range p.Descendants {
		if d.Status != p.FinalStatus {
			p.Affected = append(p.Affected, d)
		}
	}
	p.RequiresConfirmation = len(p.Affected) >= 2
	return p, nil
}

// resolve runs auto-detection and fills FinalStatus, AutoDetected,
// ForceRequired, and the matching warnings.
func (e *Engine) resolve(p *Preview) {
	requested := p.RequestedStatus
	if requested == "" {
		requested = e.defaultStatus
	}

	reasons := detectIncomplete(p.Target, p.Descendants)
	if len(reasons) == 0 || requested == stitch.StatusAbandoned {
		p.FinalStatus = requested
		return
	}

	why := strings.Join(reasons, "; ")
	explicit := p.RequestedStatus != ""

	switch {
	case p.Force && explicit:
		p.FinalStatus = requested
		p.Warnings = append(p.Warnings, fmt.Sprintf("finishing as %s despite: %s", requested, why))
	case p.Force:
		p.FinalStatus = stitch.StatusAbandoned
		p.AutoDetected = true
		p.Warnings = append(p.Warnings, fmt.Sprintf("auto-detected abandoned: %s", why))
	default:
		p.FinalStatus = stitch.StatusAbandoned
		p.AutoDetected = true
		p.ForceRequired = fmt.Sprintf("work looks incomplete (%s); it would be marked abandoned. "+
			"Pass force to confirm, or finish explicitly as abandoned", why)
		p.Warnings = append(p.Warnings, fmt.Sprintf("auto-detected abandoned instead of %s: %s", requested, why))
	}
}

// detectIncomplete returns the reasons the target looks unfinished: no
// linked commits, or descendants still open.
func detectIncomplete(target *stitch.Stitch, descendants []*stitch.Stitch) []string {
	var reasons []string
	if !target.HasLinkedWork() {
		reasons = append(reasons, fmt.Sprintf("stitch %s has no linked commits", target.ID))
	}
	var open []string
	for _, d := range descendants {
		if d.Status == stitch.StatusOpen {
			open = append(open, d.ID)
		}
	}
	if len(open) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d descendant(s) still open: %s", len(open), strings.Join(open, ", ")))
	}
	return reasons
}

// Execute writes a prepared finish. Either every affected document is
// updated or, on a write failure, every document is left as it was.
func (e *Engine) Execute(ctx context.Context, p *Preview, opts ExecuteOptions) (*Result, error) {
	if p == nil || p.Target == nil {
		return nil, fmt.Errorf("execute: empty preview")
	}
	force := p.Force || opts.Force
	if p.ForceRequired != "" && !force {
		return nil, &ForceRequiredError{ID: p.Target.ID, Reason: p.ForceRequired}
	}

	supersededBy := p.SupersededBy
	if opts.SupersededBy != "" && opts.SupersededBy != supersededBy {
		if supersededBy != "" {
			return nil, fmt.Errorf("%w: preview already supersedes %q with %q, got %q",
				ErrInvalidReference, p.Target.ID, supersededBy, opts.SupersededBy)
		}
		if err := e.validateSupersede(p.Target.ID, p.FinalStatus, opts.SupersededBy); err != nil {
			return nil, err
		}
		supersededBy = opts.SupersededBy
	}
	if p.FinalStatus != stitch.StatusSuperseded {
		supersededBy = ""
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(p.Affected))
	for i, s := range p.Affected {
		ids[i] = s.ID
	}
	unlock := e.locks.LockAll(ids)
	defer unlock()

	writes, finished, err := e.stage(p, supersededBy)
	if err != nil {
		return nil, err
	}
	if err := commitAll(e.store, writes); err != nil {
		return nil, err
	}

	opID, err := stitch.NewID()
	if err != nil {
		opID = fmt.Sprintf("op-%d", timeNow().UnixNano())
	}
	res := &Result{
		OperationID:  opID,
		TargetID:     p.Target.ID,
		Finished:     finished,
		Warnings:     slices.Clone(p.Warnings),
		AutoDetected: p.AutoDetected,
		Forced:       force,
		FinalStatus:  p.FinalStatus,
		SupersededBy: supersededBy,
		FinishedAt:   timeNow().UTC().Format(time.RFC3339),
	}

	if e.observer != nil {
		if err := e.observer.OnFinish(ctx, res); err != nil {
			log.Printf("WARNING: finish %s: observer: %v", p.Target.ID, err)
		}
	}
	return res, nil
}

// stage captures the original bytes of every affected document and
// computes its replacement in memory. Nothing is written here.
//
// Replacements are built from the bytes on disk rather than the preview's
// copies, so edits made to unrelated fields since Prepare are kept. Only
// status, updated_at and relations.depends_on change; frontmatter keys the
// Stitch type does not declare round-trip through Stitch.Extra.
func (e *Engine) stage(p *Preview, supersededBy string) ([]pendingWrite, []FinishedStitch, error) {
	writes := make([]pendingWrite, 0, len(p.Affected))
	finished := make([]FinishedStitch, 0, len(p.Affected))

	for _, a := range p.Affected {
		original, err := e.store.ReadRaw(a.ID)
		if err != nil {
			if errors.Is(err, stitch.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: %q disappeared before it could be finished", ErrNotFound, a.ID)
			}
			return nil, nil, fmt.Errorf("%w: capturing stitch %s: %w", ErrIO, a.ID, err)
		}
		doc, err := stitch.Decode(original)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: re-reading stitch %s: %w", ErrIO, a.ID, err)
		}

		previous := doc.Status
		if _, err := checkFinish(doc.ID, previous, p.FinalStatus); err != nil {
			return nil, nil, err
		}
		doc.Status = p.FinalStatus
		if supersededBy != "" && doc.ID == p.Target.ID {
			doc.AddDependency(supersededBy)
		}
		doc.Touch()

		updated, err := stitch.Encode(doc)
		if err != nil {
			return nil, nil, err
		}
		writes = append(writes, pendingWrite{id: doc.ID, original: original, updated: updated})
		finished = append(finished, FinishedStitch{
			ID:             doc.ID,
			Title:          doc.Title,
			PreviousStatus: previous,
			NewStatus:      p.FinalStatus,
		})
	}
	return writes, finished, nil
}

// Finish prepares and executes in one step, without confirmation.
func (e *Engine) Finish(ctx context.Context, id string, opts Options) (*Result, error) {
	p, err := e.Prepare(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, p, ExecuteOptions{Force: opts.Force})
}

// validateSupersede checks a superseding reference against the status it
// comes with.
func (e *Engine) validateSupersede(id string, status stitch.Status, ref string) error {
	if ref == "" {
		return nil
	}
	if status != stitch.StatusSuperseded {
		return fmt.Errorf("%w: superseded-by %q given for %q but status is %q, not superseded",
			ErrInvalidReference, ref, id, displayStatus(status))
	}
	if ref == id {
		return fmt.Errorf("%w: %q cannot supersede itself", ErrInvalidReference, id)
	}
	if !e.store.Exists(ref) {
		return fmt.Errorf("%w: superseding stitch %q does not exist", ErrInvalidReference, ref)
	}
	return nil
}

// load reads a stitch, mapping the store's not-found error to ErrNotFound.
func (e *Engine) load(id string) (*stitch.Stitch, error) {
	s, err := e.store.Load(id)
	if err != nil {
		if errors.Is(err, stitch.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading stitch %q: %w", id, err)
	}
	return s, nil
}

func displayStatus(s stitch.Status) string {
	if s == "" {
		return "unset"
	}
	return string(s)
}
