package report

import "errors"

var (
	// ErrKeyFetch indicates the encryption key could not be obtained. No
	// plaintext is ever persisted in this state.
	ErrKeyFetch = errors.New("report: encryption key unavailable")

	// ErrPersistence indicates the durable store rejected the report.
	ErrPersistence = errors.New("report: failed to persist report")

	// ErrPublish indicates escalation routing failed after the report was
	// already persisted. The report exists; delivery was alerted out-of-band.
	ErrPublish = errors.New("report: failed to publish escalation")

	// ErrReportAccess is returned for both unauthorized accessors and unknown
	// report IDs, so a denied caller cannot probe which IDs exist.
	ErrReportAccess = errors.New("report: access denied")

	// ErrNotFound is the store-level miss. The service never surfaces it
	// directly; it folds into ErrReportAccess.
	ErrNotFound = errors.New("report: not found")

	// ErrKeyVersion indicates ciphertext was sealed under a key version the
	// current key material cannot open.
	ErrKeyVersion = errors.New("report: key version mismatch")
)
