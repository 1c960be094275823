package rag

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ziadkadry99/askbook/internal/pages"
)

// PageSet is a set of zero-based page positions within one subject.
type PageSet map[int]struct{}

// NewPageSet returns a set holding positions.
func NewPageSet(positions ...int) PageSet {
	s := make(PageSet, len(positions))
	s.Add(positions...)
	return s
}

// Add inserts positions into the set.
func (s PageSet) Add(positions ...int) {
	for _, p := range positions {
		s[p] = struct{}{}
	}
}

// Has reports whether position is in the set.
func (s PageSet) Has(position int) bool {
	_, ok := s[position]
	return ok
}

// Union adds every position of other to s.
func (s PageSet) Union(other PageSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Sorted returns the positions in ascending order.
func (s PageSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (s PageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PageSet) UnmarshalJSON(data []byte) error {
	var positions []int
	if err := json.Unmarshal(data, &positions); err != nil {
		return err
	}
	*s = NewPageSet(positions...)
	return nil
}

// RetrievalResult maps each subject to the pages retrieved for it.
type RetrievalResult map[string]PageSet

// Subjects returns the subjects of the result in sorted order.
func (r RetrievalResult) Subjects() []string {
	out := make([]string, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SubjectAnswer is the synthesized answer for one subject. Failed marks a
// subject whose generation or retrieval failed, as opposed to one that
// simply had nothing to say.
type SubjectAnswer struct {
	Subject   string `json:"subject"`
	Reasoning string `json:"reasoning,omitempty"`
	Answer    string `json:"answer"`
	Pages     []int  `json:"pages"`
	Failed    bool   `json:"failed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CitedFigure is a figure extracted from one of the retrieved pages.
type CitedFigure struct {
	Position int `json:"position"`
	pages.Figure
}

// Status is the terminal state of a question.
type Status string

const (
	StatusAnswered  Status = "answered"
	StatusNoSubject Status = "no_subject"
)

// Answer is the aggregate result of one question.
type Answer struct {
	Query    string                   `json:"query"`
	Status   Status                   `json:"status"`
	Subjects []string                 `json:"subjects"`
	Queries  []string                 `json:"queries"`
	Pages    RetrievalResult          `json:"pages"`
	Answers  []SubjectAnswer          `json:"answers"`
	Figures  map[string][]CitedFigure `json:"figures,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Duration time.Duration            `json:"duration_ns"`
}

// Stage names a step of the pipeline.
type Stage string

const (
	StageClassify   Stage = "classify"
	StageExpand     Stage = "expand"
	StageRetrieve   Stage = "retrieve"
	StageSynthesize Stage = "synthesize"
	StageFigures    Stage = "figures"
	StageDone       Stage = "done"
)

// Event reports pipeline progress to an Observer.
type Event struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Observer receives pipeline events. It is called synchronously.
type Observer func(Event)

// Len returns the number of positions in the set.
func (s PageSet) Len() int { return len(s) }
