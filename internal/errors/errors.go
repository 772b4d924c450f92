// Package errors provides the structured error kinds used across the engine.
//
// Each public operation returns one of a fixed set of kinds rather than a
// sentinel string, so callers can branch on Kind() without string-matching
// messages.
package errors

import "fmt"

// Kind identifies the class of a structured engine error.
type Kind string

const (
	// KindInvalidKey marks a Memoir key that fails segment validation
	// (empty segment, "..", or a path separator inside a segment).
	KindInvalidKey Kind = "InvalidKey"
	// KindPathEscape marks a resolved path that falls outside the memory root.
	KindPathEscape Kind = "PathEscape"
	// KindZoneDepthExceeded marks a write whose key depth exceeds a zone's max_depth.
	KindZoneDepthExceeded Kind = "ZoneDepthExceeded"
	// KindZoneQuotaExceeded marks a write that would exceed a zone's max_items.
	KindZoneQuotaExceeded Kind = "ZoneQuotaExceeded"
	// KindCollectionPathMissing marks add_collection against a nonexistent root.
	KindCollectionPathMissing Kind = "CollectionPathMissing"
	// KindModelUnavailable marks an embedding/rerank model that cannot be found or fetched.
	KindModelUnavailable Kind = "ModelUnavailable"
	// KindModelLoadTimeout marks a model load that exceeded its deadline.
	KindModelLoadTimeout Kind = "ModelLoadTimeout"
	// KindEmbeddingContextUnavailable marks use of an embedder before/after it has a loaded context.
	KindEmbeddingContextUnavailable Kind = "EmbeddingContextUnavailable"
	// KindVectorExtensionMissing marks a degraded (not raised) ANN failure.
	KindVectorExtensionMissing Kind = "VectorExtensionMissing"
	// KindIndexIoFailure marks a per-file indexing failure, logged and counted, never fatal.
	KindIndexIoFailure Kind = "IndexIoFailure"
	// KindDbBusy marks a SQLITE_BUSY-class contention error. It reaches the caller without a retry.
	KindDbBusy Kind = "DbBusy"
)

// Error is the structured error type returned by engine operations.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is enables errors.Is(err, &Error{Kind: KindX}) to match by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a structured error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a structured error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is a thin indirection over errors.As kept local so callers only import
// this package for both construction and inspection of engine errors.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Degrades reports whether a failure of this kind should degrade gracefully
// (log and continue with an empty/partial result) rather than abort the
// caller's operation. Per spec: ANN/vector-extension failures during search
// are caught and treated as empty results; per-file index failures are
// logged and counted, never aborting the reindex.
func Degrades(kind Kind) bool {
	switch kind {
	case KindVectorExtensionMissing, KindIndexIoFailure:
		return true
	default:
		return false
	}
}
