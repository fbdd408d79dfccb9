package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the terminal result of one work item of an ingestion run.
type Outcome struct {
	Position int            `json:"position"`
	Total    int            `json:"total"`
	VideoID  YoutubeVideoID `json:"video_id"`
	Status   OutcomeStatus  `json:"status"`
	Reason   string         `json:"reason,omitempty"`
	Title    string         `json:"title,omitempty"`
	Author   string         `json:"author,omitempty"`
	Err      error          `json:"-"`
}

func (o Outcome) Cause() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		plain
		Cause string `json:"cause,omitempty"`
	}{plain(o), o.Cause()})
}

func (o Outcome) String() string {
	prefix := fmt.Sprintf("[Video %d/%d | ID: %s]", o.Position, o.Total, o.VideoID)
	switch o.Status {
	case OutcomeSuccess:
		return fmt.Sprintf("%s SUCCESS: '%s' by '%s' saved", prefix, o.Title, o.Author)
	case OutcomeSkipped:
		return fmt.Sprintf("%s SKIPPED (%s): %s", prefix, o.Reason, o.Cause())
	default:
		return fmt.Sprintf("%s FAILED (%s): %s", prefix, o.Reason, o.Cause())
	}
}

type IngestionReport struct {
	RunID      uuid.UUID `json:"run_id"`
	Playlist   string    `json:"playlist"`
	Discovered int       `json:"discovered"`
	Succeeded  int       `json:"succeeded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}

func NewIngestionReport(playlist string) *IngestionReport {
	return &IngestionReport{
		RunID:    uuid.New(),
		Playlist: playlist,
		Outcomes: []Outcome{},
	}
}

// Add appends an outcome in arrival order and updates the counters.
func (r *IngestionReport) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case OutcomeSuccess:
		r.Succeeded++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// InDiscoveryOrder returns a copy of the outcomes sorted by position.
func (r *IngestionReport) InDiscoveryOrder() []Outcome {
	sorted := make([]Outcome, len(r.Outcomes))
	copy(sorted, r.Outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}
