package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/realtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type VoteResult struct {
	QuestionID uuid.UUID
	NomineeID  uuid.UUID
	Votes      int64
}

type VoteService struct {
	store    database.Store
	notifier realtime.Notifier
}

func NewVoteService(store database.Store, notifier realtime.Notifier) *VoteService {
	if notifier == nil {
		notifier = realtime.NopNotifier{}
	}
	return &VoteService{store: store, notifier: notifier}
}

// CastVote records one vote of userID for nomineeID. The counter increment and the history entry
// commit together or not at all, and a user votes at most once per question.
func (s *VoteService) CastVote(ctx context.Context, userID, questionID, nomineeID uuid.UUID) (*VoteResult, error) {
	var result *VoteResult
	err := s.store.InVoteTx(ctx, func(tx database.VoteTx) error {
		now := time.Now().UTC()

		question, err := tx.GetQuestion(ctx, questionID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrVotingNotActive
		}
		if err != nil {
			return err
		}
		if !question.AcceptsVotes(now) {
			return models.ErrVotingNotActive
		}

		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		voted, err := tx.HasVoted(ctx, userID, questionID)
		if err != nil {
			return err
		}
		if voted {
			return models.ErrAlreadyVoted
		}

		if _, ok := question.Nominee(nomineeID); !ok {
			return models.ErrInvalidNominee
		}

		// The nominee can vanish between loading the question and the increment when an
		// edit removes it concurrently.
		votes, err := tx.IncrementVotes(ctx, nomineeID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidNominee
		}
		if err != nil {
			return err
		}
		if err := tx.AppendVote(ctx, userID, models.VoteRecord{
			QuestionID: questionID,
			VotedFor:   nomineeID,
			VotedAt:    now,
		}); err != nil {
			return err
		}

		result = &VoteResult{QuestionID: questionID, NomineeID: nomineeID, Votes: votes}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"question_id": questionID,
		"nominee_id":  nomineeID,
	}).Info("Vote recorded")

	s.notifier.Broadcast(realtime.QuestionRoom(questionID), realtime.EventVoteUpdate,
		realtime.VoteUpdatePayload(questionID, nomineeID, result.Votes))

	return result, nil
}

// OpenQuestions lists questions currently accepting votes, annotated with userID's vote.
func (s *VoteService) OpenQuestions(ctx context.Context, userID uuid.UUID) ([]models.QuestionResponse, error) {
	now := time.Now().UTC()
	questions, err := s.store.ListOpenQuestions(ctx, now)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListVotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uuid.UUID]models.VoteRecord, len(history))
	for _, v := range history {
		byQuestion[v.QuestionID] = v
	}

	out := make([]models.QuestionResponse, 0, len(questions))
	for i := range questions {
		resp := models.NewQuestionResponse(&questions[i], now)
		if v, ok := byQuestion[questions[i].ID]; ok {
			v := v
			resp.MyVote = &v
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *VoteService) History(ctx context.Context, userID uuid.UUID) (*models.VoteHistoryResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.VoteHistoryResponse{
		VotingFinalized:   user.VotingFinalized,
		VotingFinalizedAt: user.VotingFinalizedAt,
		Votes:             votes,
	}, nil
}

// Finalize marks the user's voting as finished. Repeated calls keep the first timestamp.
func (s *VoteService) Finalize(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.FinalizeVoting(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to finalize voting: %w", err)
	}
	return user, nil
}
