package models

import (
	"time"

	"github.com/google/uuid"
)

// MinVotingWindow is the shortest allowed [StartTime, EndTime] interval.
const MinVotingWindow = 3 * time.Hour

type QuestionStatus string

const (
	StatusScheduled QuestionStatus = "scheduled"
	StatusActive    QuestionStatus = "active"
	StatusExpired   QuestionStatus = "expired"
	StatusInactive  QuestionStatus = "inactive"
)

type Question struct {
	ID          uuid.UUID
	Title       string
	Description string
	Nominees    []Nominee
	StartTime   time.Time
	EndTime     time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status derives the question's lifecycle state at now. The voting window is inclusive on both ends.
func (q *Question) Status(now time.Time) QuestionStatus {
	switch {
	case !q.IsActive:
		return StatusInactive
	case now.Before(q.StartTime):
		return StatusScheduled
	case now.After(q.EndTime):
		return StatusExpired
	default:
		return StatusActive
	}
}

func (q *Question) AcceptsVotes(now time.Time) bool {
	return q.Status(now) == StatusActive
}

func (q *Question) Nominee(id uuid.UUID) (*Nominee, bool) {
	for i := range q.Nominees {
		if q.Nominees[i].ID == id {
			return &q.Nominees[i], true
		}
	}
	return nil, false
}

type Nominee struct {
	ID             uuid.UUID
	QuestionID     uuid.UUID
	Name           string
	Position       int
	Votes          int64
	Image          *string
	ImageProcessed bool
	ImageJobID     *uuid.UUID
	TempImagePath  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImagePending reports whether the image pipeline currently owns the nominee's image fields.
func (n *Nominee) ImagePending() bool {
	return n.ImageJobID != nil && !n.ImageProcessed
}
