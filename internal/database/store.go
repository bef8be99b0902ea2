package database

import (
	"context"
	"time"

	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
)

// Store is the persistent state of the application. Implementations enforce referential
// integrity themselves: nominees are removed together with their question and are only
// ever resolved through their QuestionID.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// EnsureUser returns the user with id, creating it with email and role when missing.
	// The role of an existing user is never changed.
	EnsureUser(ctx context.Context, id uuid.UUID, email string, role models.Role) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FinalizeVoting(ctx context.Context, userID uuid.UUID, at time.Time) (*models.User, error)
	ListVotes(ctx context.Context, userID uuid.UUID) ([]models.VoteRecord, error)

	// InVoteTx runs fn in a single all-or-nothing transaction. If fn returns an error nothing
	// it did is persisted.
	InVoteTx(ctx context.Context, fn func(tx VoteTx) error) error

	CreateQuestion(ctx context.Context, q *models.Question) error
	// SaveQuestion updates the question's fields and replaces its nominee list. Nominees whose
	// ID already exists keep their vote counter; missing ones are deleted. Image fields of a
	// nominee are only written when TempImagePath is set (a new upload in this save).
	SaveQuestion(ctx context.Context, q *models.Question) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]models.Question, error)
	// ListOpenQuestions returns active questions whose voting window contains now.
	ListOpenQuestions(ctx context.Context, now time.Time) ([]models.Question, error)

	GetNominee(ctx context.Context, id uuid.UUID) (*models.Nominee, error)
	// PublishNomineeImage sets image and imageProcessed=true if jobID is still the nominee's
	// current image job. Returns models.ErrSuperseded when a newer job owns the nominee.
	PublishNomineeImage(ctx context.Context, nomineeID, jobID uuid.UUID, imagePath string) error
	// ReleaseNomineeImageJob drops jobID's claim on the nominee when the job never ran. The
	// previous image, if any, stays published. A nominee owned by another job is left alone.
	ReleaseNomineeImageJob(ctx context.Context, nomineeID, jobID uuid.UUID) error
}

// VoteTx is the view of the store available inside a vote transaction.
type VoteTx interface {
	GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error)
	// LockUser serializes concurrent transactions of the same user until commit.
	LockUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	HasVoted(ctx context.Context, userID, questionID uuid.UUID) (bool, error)
	IncrementVotes(ctx context.Context, nomineeID uuid.UUID) (int64, error)
	AppendVote(ctx context.Context, userID uuid.UUID, record models.VoteRecord) error
}
