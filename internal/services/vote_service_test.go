package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/realtime"
	"employee-poll-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := services.NewVoteService(store, notifier)

	user := newUser(t, store)
	q := seedQuestion(t, store, "Ada", "Grace")
	nominee := q.Nominees[1]

	result, err := svc.CastVote(ctx, user.ID, q.ID, nominee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Votes)
	assert.Equal(t, nominee.ID, result.NomineeID)

	stored, err := store.GetNominee(ctx, nominee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Votes)

	votes, err := store.ListVotes(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, q.ID, votes[0].QuestionID)
	assert.Equal(t, nominee.ID, votes[0].VotedFor)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.QuestionRoom(q.ID), events[0].Room)
	assert.Equal(t, realtime.EventVoteUpdate, events[0].Event)
	assert.Equal(t, realtime.VoteUpdatePayload(q.ID, nominee.ID, 1), events[0].Payload)
}

func TestCastVote_Errors(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name  string
		setup func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (questionID, nomineeID uuid.UUID)
		want  error
	}{
		{
			name: "unknown question",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				return uuid.New(), q.Nominees[0].ID
			},
			want: models.ErrVotingNotActive,
		},
		{
			name: "deactivated question",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				require.NoError(t, store.SetQuestionActive(ctx, q.ID, false))
				return q.ID, q.Nominees[0].ID
			},
			want: models.ErrVotingNotActive,
		},
		{
			name: "window not started",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				q.StartTime = now.Add(time.Hour)
				q.EndTime = now.Add(5 * time.Hour)
				require.NoError(t, store.SaveQuestion(ctx, q))
				return q.ID, q.Nominees[0].ID
			},
			want: models.ErrVotingNotActive,
		},
		{
			name: "window ended",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				q.StartTime = now.Add(-5 * time.Hour)
				q.EndTime = now.Add(-time.Hour)
				require.NoError(t, store.SaveQuestion(ctx, q))
				return q.ID, q.Nominees[0].ID
			},
			want: models.ErrVotingNotActive,
		},
		{
			name: "nominee of another question",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				other := seedQuestion(t, store, "X", "Y")
				return q.ID, other.Nominees[0].ID
			},
			want: models.ErrInvalidNominee,
		},
		{
			name: "already voted wins over invalid nominee",
			setup: func(t *testing.T, store database.Store, q *models.Question, userID uuid.UUID) (uuid.UUID, uuid.UUID) {
				_, err := services.NewVoteService(store, nil).CastVote(ctx, userID, q.ID, q.Nominees[0].ID)
				require.NoError(t, err)
				return q.ID, uuid.New()
			},
			want: models.ErrAlreadyVoted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := database.NewMemoryStore()
			notifier := &recordingNotifier{}
			svc := services.NewVoteService(store, notifier)
			user := newUser(t, store)
			q := seedQuestion(t, store, "Ada", "Grace")

			questionID, nomineeID := tt.setup(t, store, q, user.ID)
			before := notifier.Events()

			_, err := svc.CastVote(ctx, user.ID, questionID, nomineeID)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, notifier.Events(), len(before))
		})
	}
}

// vanishingNomineeStore behaves as if every nominee is deleted right after the question is read.
type vanishingNomineeStore struct {
	*database.MemoryStore
}

func (s vanishingNomineeStore) InVoteTx(ctx context.Context, fn func(tx database.VoteTx) error) error {
	return s.MemoryStore.InVoteTx(ctx, func(tx database.VoteTx) error {
		return fn(vanishingNomineeTx{tx})
	})
}

type vanishingNomineeTx struct {
	database.VoteTx
}

func (vanishingNomineeTx) IncrementVotes(ctx context.Context, nomineeID uuid.UUID) (int64, error) {
	return 0, fmt.Errorf("increment votes: %w", models.ErrNotFound)
}

func TestCastVote_NomineeRemovedConcurrently(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore()
	q := seedQuestion(t, mem, "Alice", "Bob")
	user := newUser(t, mem)

	svc := services.NewVoteService(vanishingNomineeStore{mem}, nil)
	_, err := svc.CastVote(ctx, user.ID, q.ID, q.Nominees[0].ID)
	assert.ErrorIs(t, err, models.ErrInvalidNominee)
	assert.NotErrorIs(t, err, models.ErrNotFound)

	votes, err := mem.ListVotes(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestCastVote_UnknownUser(t *testing.T) {
	store := database.NewMemoryStore()
	svc := services.NewVoteService(store, nil)
	q := seedQuestion(t, store, "Ada", "Grace")

	_, err := svc.CastVote(context.Background(), uuid.New(), q.ID, q.Nominees[0].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCastVote_ConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := services.NewVoteService(store, nil)
	user := newUser(t, store)
	q := seedQuestion(t, store, "Ada", "Grace")

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CastVote(ctx, user.ID, q.ID, q.Nominees[i%2].ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, models.ErrAlreadyVoted):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	stored, err := store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	var total int64
	for _, n := range stored.Nominees {
		total += n.Votes
	}
	assert.Equal(t, int64(1), total)

	votes, err := store.ListVotes(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCastVote_ConcurrentManyUsers(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := services.NewVoteService(store, nil)
	q := seedQuestion(t, store, "Ada", "Grace")

	const voters = 25
	users := make([]*models.User, voters)
	for i := range users {
		users[i] = newUser(t, store)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.CastVote(ctx, id, q.ID, q.Nominees[0].ID)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	n, err := store.GetNominee(ctx, q.Nominees[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), n.Votes)
}

func TestOpenQuestions_IncludesMyVote(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := services.NewVoteService(store, nil)
	user := newUser(t, store)

	voted := seedQuestion(t, store, "Ada", "Grace")
	open := seedQuestion(t, store, "Linus", "Ken")
	closed := seedQuestion(t, store, "Alan", "Edsger")
	require.NoError(t, store.SetQuestionActive(ctx, closed.ID, false))

	_, err := svc.CastVote(ctx, user.ID, voted.ID, voted.Nominees[1].ID)
	require.NoError(t, err)

	questions, err := svc.OpenQuestions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	byID := make(map[string]models.QuestionResponse)
	for _, q := range questions {
		byID[q.ID] = q
	}
	require.Contains(t, byID, voted.ID.String())
	require.Contains(t, byID, open.ID.String())
	assert.NotContains(t, byID, closed.ID.String())

	require.NotNil(t, byID[voted.ID.String()].MyVote)
	assert.Equal(t, voted.Nominees[1].ID, byID[voted.ID.String()].MyVote.VotedFor)
	assert.Nil(t, byID[open.ID.String()].MyVote)
	assert.Equal(t, models.StatusActive, byID[open.ID.String()].Status)
}

func TestFinalize_KeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	svc := services.NewVoteService(store, nil)
	user := newUser(t, store)

	first, err := svc.Finalize(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, first.VotingFinalized)
	require.NotNil(t, first.VotingFinalizedAt)

	second, err := svc.Finalize(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, first.VotingFinalizedAt.Equal(*second.VotingFinalizedAt))

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, history.VotingFinalized)
	assert.Empty(t, history.Votes)
}

func TestFinalize_UnknownUser(t *testing.T) {
	svc := services.NewVoteService(database.NewMemoryStore(), nil)
	_, err := svc.Finalize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
