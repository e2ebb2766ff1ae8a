// Package errkind names the five error kinds the pipeline distinguishes so
// callers can branch on `errors.As` instead of string-matching messages:
// Transient (swallowed inside the Fetcher, never surfaced), Missing (a
// per-record skip, not wrapped as a type — callers just get a zero value),
// SourceFatal (an adapter gave up and the Reconciler should fall back),
// Validation (the catalog failed its size thresholds), and Programmer (an
// invariant violation the driver aborts on unconditionally).
package errkind

import "fmt"

// SourceFatal marks an adapter failure severe enough that its caller must
// either fall back to an alternate adapter or abort the catalog phase. The
// Driver constructs this directly when a fallback adapter itself fails
// (internal/catalog/cardapi.HardFailure is the other concrete producer,
// recognized separately since it carries its own reason and is the trigger
// for the fallback rather than its outcome).
type SourceFatal struct {
	Adapter string
	Err     error
}

func (e *SourceFatal) Error() string {
	return fmt.Sprintf("%s: source-fatal: %v", e.Adapter, e.Err)
}

func (e *SourceFatal) Unwrap() error { return e.Err }

// Validation marks a catalog validator failure. Under strict mode the
// Driver treats it as fatal; otherwise it logs and retains the previous
// persisted catalog.
type Validation struct {
	Err error
}

func (e *Validation) Error() string { return fmt.Sprintf("validation: %v", e.Err) }

func (e *Validation) Unwrap() error { return e.Err }

// Programmer marks an invariant violation — a bug, not an external
// condition. The Driver always aborts on this regardless of strict mode.
type Programmer struct {
	Detail string
}

func (e *Programmer) Error() string { return "programmer error: " + e.Detail }
