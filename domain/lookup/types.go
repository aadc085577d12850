// Package lookup holds the batch web-lookup domain: entity extraction,
// query templating, lookup results and their reduction to display strings.
package lookup

import (
	"time"

	"agentdash/domain/core"
)

// Entity is one distinct value drawn from a dataset column
type Entity struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// String returns the entity's text form
func (e Entity) String() string { return e.Value }

// Candidate is one ranked search hit. Snippet and Link are optional because
// providers omit them for some result kinds.
type Candidate struct {
	Position int     `json:"position"`
	Title    *string `json:"title,omitempty"`
	Snippet  *string `json:"snippet,omitempty"`
	Link     *string `json:"link,omitempty"`
}

// SnippetOr returns the snippet, or def when the provider sent none
func (c Candidate) SnippetOr(def string) string {
	if c.Snippet == nil {
		return def
	}
	return *c.Snippet
}

// Outcome is the three-way shape of a lookup
type Outcome string

const (
	OutcomeFound  Outcome = "found"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// Result is what a lookup client returns for one query
type Result struct {
	Outcome    Outcome     `json:"outcome"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Found builds a success result. With no candidates it is an empty result.
func Found(candidates ...Candidate) Result {
	if len(candidates) == 0 {
		return Empty()
	}
	return Result{Outcome: OutcomeFound, Candidates: candidates}
}

// Empty builds a success result with no candidates
func Empty() Result {
	return Result{Outcome: OutcomeEmpty}
}

// Failed builds a failure result from an error
func Failed(err error) Result {
	if err == nil {
		return Failure("unknown error")
	}
	return Failure(err.Error())
}

// Failure builds a failure result carrying a diagnostic message
func Failure(message string) Result {
	return Result{Outcome: OutcomeFailed, Message: message}
}

// ResultRow is one line of the output table
type ResultRow struct {
	Entity  string  `json:"entity" db:"entity"`
	Query   string  `json:"query" db:"query"`
	Result  string  `json:"result" db:"result"`
	Outcome Outcome `json:"outcome" db:"outcome"`
}

// Batch is one full run of the lookup routine across a column
type Batch struct {
	ID                 core.BatchID `json:"id"`
	DatasetName        string       `json:"dataset_name"`
	DatasetFingerprint core.Hash    `json:"dataset_fingerprint"`
	Column             string       `json:"column"`
	Template           string       `json:"template"`
	Rows               []ResultRow  `json:"rows"`
	Warnings           []string     `json:"warnings,omitempty"`
	StartedAt          time.Time    `json:"started_at"`
	CompletedAt        time.Time    `json:"completed_at"`
}

// Counts tallies rows by outcome
func (b *Batch) Counts() (found, empty, failed int) {
	for _, r := range b.Rows {
		switch r.Outcome {
		case OutcomeFound:
			found++
		case OutcomeEmpty:
			empty++
		case OutcomeFailed:
			failed++
		}
	}
	return found, empty, failed
}

// Duration returns the wall time of the batch
func (b *Batch) Duration() time.Duration {
	if b.CompletedAt.IsZero() {
		return 0
	}
	return b.CompletedAt.Sub(b.StartedAt)
}
