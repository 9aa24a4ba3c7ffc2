package model

import "fmt"

// IOError wraps a failure reading or mapping a file during build or load.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("acsearch: io error on %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// InvalidFormatError signals a magic mismatch, truncated record, an
// oversized key, or a failed checksum on an ACX/CDB file.
type InvalidFormatError struct {
	Path   string
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("acsearch: invalid format in %s: %s", e.Path, e.Reason)
}

// NotFoundError is returned by the sentence store when an id has no
// record, base or overlay.
type NotFoundError struct {
	ID uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("acsearch: sentence id %d not found", e.ID)
}

// BudgetExceededError marks that a candidate cap was hit; the caller
// receives the best-effort set rather than an empty one, so this type
// exists for observability (logging) rather than hard failure.
type BudgetExceededError struct {
	Budget string
	Limit  int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("acsearch: %s budget of %d exceeded", e.Budget, e.Limit)
}

// CorruptMappingError marks a sentence whose norm_to_orig mapping
// violates its invariant (an entry indexes past len(original)), or
// whose line has no entry in the prefix-sums sidecar. The sentence
// contributes no match rather than crashing the query.
type CorruptMappingError struct {
	SentenceID uint32
}

func (e *CorruptMappingError) Error() string {
	return fmt.Sprintf("acsearch: corrupt norm_to_orig mapping on sentence %d", e.SentenceID)
}
