package extract

import "fmt"

// Reason is a stable, machine-readable failure code for document-fatal and
// configuration failures. Everything below document scope is absorbed and
// logged, never surfaced here.
type Reason string

const (
	ReasonNoPages            Reason = "no_pages"
	ReasonNothingExtracted   Reason = "nothing_extracted"
	ReasonMissingCredentials Reason = "missing_credentials"
	ReasonBadDocument        Reason = "bad_document"
)

// FatalError is the only error type Run returns for pipeline failures. The
// message is curated for display; upstream error bodies never appear in it.
type FatalError struct {
	Reason  Reason
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func fatal(reason Reason, format string, args ...any) *FatalError {
	return &FatalError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
