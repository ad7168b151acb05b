package domain

import "errors"

var (
	// ErrNoArtifact marks a synthesis call that finished without producing an
	// artifact. Distinct from a transport or backend failure.
	ErrNoArtifact = errors.New("no artifact produced")

	// ErrAllFailed marks a batch run in which every item failed, distinct
	// from an empty-but-successful run.
	ErrAllFailed = errors.New("all batch items failed")
)
