package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

type User struct {
	ID                uuid.UUID
	Email             string
	Role              Role
	VotingFinalized   bool
	VotingFinalizedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// VoteRecord is one entry of a user's append-only vote history.
type VoteRecord struct {
	QuestionID uuid.UUID `json:"questionId"`
	VotedFor   uuid.UUID `json:"votedFor"`
	VotedAt    time.Time `json:"votedAt"`
}
