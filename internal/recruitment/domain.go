package recruitment

import (
	"errors"
	"time"
)

// PostingStatus enumerates job posting states.
type PostingStatus string

const (
	PostingDraft  PostingStatus = "draft"
	PostingActive PostingStatus = "active"
	PostingPaused PostingStatus = "paused"
	PostingClosed PostingStatus = "closed"
)

// KnownPostingStatus reports whether s is a recognized posting state.
func KnownPostingStatus(s PostingStatus) bool {
	switch s {
	case PostingDraft, PostingActive, PostingPaused, PostingClosed:
		return true
	}
	return false
}

// Stage enumerates the application pipeline.
type Stage string

const (
	StageSubmitted   Stage = "submitted"
	StageReviewing   Stage = "reviewing"
	StageShortlisted Stage = "shortlisted"
	StageInterview   Stage = "interview"
	StageSelected    Stage = "selected"
	StageRejected    Stage = "rejected"
)

// Terminal reports whether the stage ends the pipeline.
func (s Stage) Terminal() bool {
	return s == StageSelected || s == StageRejected
}

// nextStages maps each stage to its allowed successors. Rejection is
// reachable from every non-terminal stage.
var nextStages = map[Stage][]Stage{
	StageSubmitted:   {StageReviewing, StageRejected},
	StageReviewing:   {StageShortlisted, StageRejected},
	StageShortlisted: {StageInterview, StageRejected},
	StageInterview:   {StageSelected, StageRejected},
}

// CanAdvance reports whether the pipeline allows moving from one stage
// to another.
func CanAdvance(from, to Stage) bool {
	for _, next := range nextStages[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Posting is an open position candidates apply to.
type Posting struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Department   string        `json:"department"`
	Description  string        `json:"description,omitempty"`
	Requirements string        `json:"requirements,omitempty"`
	Status       PostingStatus `json:"status"`
	PostedBy     string        `json:"posted_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Application tracks one candidate against one posting.
type Application struct {
	ID             string    `json:"id"`
	PostingID      string    `json:"posting_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	ResumeURL      string    `json:"resume_url,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Stage          Stage     `json:"stage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the posting or application is absent.
	ErrNotFound = errors.New("recruitment: not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("recruitment: invalid input")
	// ErrInvalidState occurs on a transition the pipeline does not allow.
	ErrInvalidState = errors.New("recruitment: invalid transition")
	// ErrPostingClosed occurs when applying to a posting not accepting
	// candidates.
	ErrPostingClosed = errors.New("recruitment: posting not accepting applications")
)
