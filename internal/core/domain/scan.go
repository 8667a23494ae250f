package domain

import "time"

// ScanMode selects how a scan walks the repository.
type ScanMode int

const (
	// ScanFull visits every tracked text document.
	ScanFull ScanMode = iota

	// ScanIncremental visits only documents changed since a reference.
	ScanIncremental
)

// ScanOutcome classifies the result of upserting one document.
type ScanOutcome int

const (
	// OutcomeIndexed means new rows were written for the document.
	OutcomeIndexed ScanOutcome = iota

	// OutcomeUnchanged means the (document, commit) revision already
	// existed with matching content; nothing was written.
	OutcomeUnchanged

	// OutcomeWarned means the document indexed with parse warnings.
	OutcomeWarned

	// OutcomeFailed means the document could not be indexed.
	OutcomeFailed
)

// ScanSummary reports per-document outcomes of one scan.
// Scans never abort on per-document failures; callers inspect the summary.
type ScanSummary struct {
	// RepositoryID is the scanned repository.
	RepositoryID string

	// CommitSHA is the head commit the scan ran against.
	CommitSHA string

	// Indexed, Unchanged, Warned and Failed count document outcomes.
	Indexed   int
	Unchanged int
	Warned    int
	Failed    int

	// ItemsParsed counts requirement items written during the scan.
	ItemsParsed int

	// LinksParsed counts link edges written during the scan.
	LinksParsed int

	// EmbeddingsPending counts items left without an embedding,
	// flagged for the retry pass.
	EmbeddingsPending int

	// Warnings carries per-document warning messages, keyed by path.
	Warnings map[string][]string

	// Started and Finished bound the scan wall time.
	Started  time.Time
	Finished time.Time
}

// AddWarning appends a warning message for a path.
func (s *ScanSummary) AddWarning(path, msg string) {
	if s.Warnings == nil {
		s.Warnings = make(map[string][]string)
	}
	s.Warnings[path] = append(s.Warnings[path], msg)
}
