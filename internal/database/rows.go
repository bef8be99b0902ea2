package database

import (
	"time"

	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
)

type userRow struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string
	Role              string
	VotingFinalized   bool
	VotingFinalizedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:                r.ID,
		Email:             r.Email,
		Role:              models.Role(r.Role),
		VotingFinalized:   r.VotingFinalized,
		VotingFinalizedAt: r.VotingFinalizedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type voteRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     uuid.UUID `gorm:"type:uuid"`
	QuestionID uuid.UUID `gorm:"type:uuid"`
	NomineeID  uuid.UUID `gorm:"type:uuid"`
	VotedAt    time.Time
}

func (voteRow) TableName() string { return "vote_history" }

type questionRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (questionRow) TableName() string { return "questions" }

func newQuestionRow(q *models.Question) questionRow {
	return questionRow{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		StartTime:   q.StartTime,
		EndTime:     q.EndTime,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r *questionRow) toModel(nominees []nomineeRow) *models.Question {
	q := &models.Question{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Nominees:    make([]models.Nominee, 0, len(nominees)),
	}
	for i := range nominees {
		q.Nominees = append(q.Nominees, *nominees[i].toModel())
	}
	return q
}

type nomineeRow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuestionID     uuid.UUID `gorm:"type:uuid"`
	Name           string
	Position       int
	Votes          int64
	Image          *string
	ImageProcessed bool
	ImageJobID     *uuid.UUID `gorm:"type:uuid"`
	TempImagePath  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (nomineeRow) TableName() string { return "nominees" }

func newNomineeRow(n *models.Nominee) nomineeRow {
	return nomineeRow{
		ID:             n.ID,
		QuestionID:     n.QuestionID,
		Name:           n.Name,
		Position:       n.Position,
		Votes:          n.Votes,
		Image:          n.Image,
		ImageProcessed: n.ImageProcessed,
		ImageJobID:     n.ImageJobID,
		TempImagePath:  n.TempImagePath,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func (r *nomineeRow) toModel() *models.Nominee {
	return &models.Nominee{
		ID:             r.ID,
		QuestionID:     r.QuestionID,
		Name:           r.Name,
		Position:       r.Position,
		Votes:          r.Votes,
		Image:          r.Image,
		ImageProcessed: r.ImageProcessed,
		ImageJobID:     r.ImageJobID,
		TempImagePath:  r.TempImagePath,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
