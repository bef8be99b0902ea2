package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is a process local Store used by tests and STORE_DRIVER=memory.
// Vote transactions hold the store lock for their whole duration.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	votes     map[uuid.UUID][]models.VoteRecord
	questions map[uuid.UUID]*models.Question
	nominees  map[uuid.UUID]*models.Nominee
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[uuid.UUID]*models.User),
		votes:     make(map[uuid.UUID][]models.VoteRecord),
		questions: make(map[uuid.UUID]*models.Question),
		nominees:  make(map[uuid.UUID]*models.Nominee),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) EnsureUser(ctx context.Context, id uuid.UUID, email string, role models.Role) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, fmt.Errorf("ensure user: %w: email %s already registered", models.ErrStorage, email)
		}
	}
	now := s.now()
	u := &models.User{ID: id, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	s.users[id] = u
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FinalizeVoting(ctx context.Context, userID uuid.UUID, at time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("finalize voting: %w", models.ErrNotFound)
	}
	if !u.VotingFinalized {
		u.VotingFinalized = true
		u.VotingFinalizedAt = &at
		u.UpdatedAt = at
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) ListVotes(ctx context.Context, userID uuid.UUID) ([]models.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.VoteRecord{}, s.votes[userID]...), nil
}

func (s *MemoryStore) InVoteTx(ctx context.Context, fn func(tx VoteTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memVoteTx{store: s, increments: make(map[uuid.UUID]int64)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	for id, n := range tx.increments {
		s.nominees[id].Votes += n
		s.nominees[id].UpdatedAt = now
	}
	for _, v := range tx.appended {
		s.votes[v.userID] = append(s.votes[v.userID], v.record)
	}
	return nil
}

func (s *MemoryStore) CreateQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[q.ID]; ok {
		return fmt.Errorf("create question: %w: duplicate id %s", models.ErrStorage, q.ID)
	}
	now := s.now()
	q.CreatedAt, q.UpdatedAt = now, now

	stored := *q
	stored.Nominees = nil
	s.questions[q.ID] = &stored
	for i := range q.Nominees {
		q.Nominees[i].QuestionID = q.ID
		q.Nominees[i].CreatedAt, q.Nominees[i].UpdatedAt = now, now
		n := q.Nominees[i]
		s.nominees[n.ID] = &n
	}
	return nil
}

func (s *MemoryStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.questions[q.ID]
	if !ok {
		return fmt.Errorf("lock question: %w", models.ErrNotFound)
	}
	now := s.now()
	current.Title = q.Title
	current.Description = q.Description
	current.StartTime = q.StartTime
	current.EndTime = q.EndTime
	current.IsActive = q.IsActive
	current.UpdatedAt = now

	stale := make(map[uuid.UUID]struct{})
	for id, n := range s.nominees {
		if n.QuestionID == q.ID {
			stale[id] = struct{}{}
		}
	}

	for i := range q.Nominees {
		in := q.Nominees[i]
		in.QuestionID = q.ID
		if _, ok := stale[in.ID]; !ok {
			in.Votes = 0
			in.CreatedAt, in.UpdatedAt = now, now
			s.nominees[in.ID] = &in
			continue
		}
		delete(stale, in.ID)

		n := s.nominees[in.ID]
		n.Name = in.Name
		n.Position = in.Position
		n.UpdatedAt = now
		if in.TempImagePath != nil {
			n.ImageJobID = in.ImageJobID
			n.TempImagePath = in.TempImagePath
			n.ImageProcessed = false
		}
	}
	for id := range stale {
		delete(s.nominees, id)
	}
	return nil
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("delete question: %w", models.ErrNotFound)
	}
	delete(s.questions, id)
	for nid, n := range s.nominees {
		if n.QuestionID == id {
			delete(s.nominees, nid)
		}
	}
	return nil
}

func (s *MemoryStore) SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return fmt.Errorf("set question active: %w", models.ErrNotFound)
	}
	q.IsActive = active
	q.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.question(id)
}

func (s *MemoryStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Question, 0, len(s.questions))
	for id := range s.questions {
		q, _ := s.question(id)
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListOpenQuestions(ctx context.Context, now time.Time) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Question, 0)
	for id, stored := range s.questions {
		if !stored.AcceptsVotes(now) {
			continue
		}
		q, _ := s.question(id)
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *MemoryStore) GetNominee(ctx context.Context, id uuid.UUID) (*models.Nominee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nominees[id]
	if !ok {
		return nil, fmt.Errorf("get nominee: %w", models.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) PublishNomineeImage(ctx context.Context, nomineeID, jobID uuid.UUID, imagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nominees[nomineeID]
	if !ok {
		return fmt.Errorf("publish nominee image: %w", models.ErrNotFound)
	}
	if n.ImageJobID == nil || *n.ImageJobID != jobID {
		return fmt.Errorf("publish nominee image: %w", models.ErrSuperseded)
	}
	n.Image = &imagePath
	n.ImageProcessed = true
	n.ImageJobID = nil
	n.TempImagePath = nil
	n.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) ReleaseNomineeImageJob(ctx context.Context, nomineeID, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nominees[nomineeID]
	if !ok || n.ImageJobID == nil || *n.ImageJobID != jobID {
		return nil
	}
	n.ImageProcessed = n.Image != nil
	n.ImageJobID = nil
	n.TempImagePath = nil
	n.UpdatedAt = s.now()
	return nil
}

// question assembles a copy of the question with its nominees. Caller holds s.mu.
func (s *MemoryStore) question(id uuid.UUID) (*models.Question, error) {
	stored, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("get question: %w", models.ErrNotFound)
	}
	q := *stored
	q.Nominees = make([]models.Nominee, 0)
	for _, n := range s.nominees {
		if n.QuestionID == id {
			q.Nominees = append(q.Nominees, *n)
		}
	}
	sort.Slice(q.Nominees, func(i, j int) bool { return q.Nominees[i].Position < q.Nominees[j].Position })
	return &q, nil
}

type pendingVote struct {
	userID uuid.UUID
	record models.VoteRecord
}

// memVoteTx stages mutations until InVoteTx commits them.
type memVoteTx struct {
	store      *MemoryStore
	increments map[uuid.UUID]int64
	appended   []pendingVote
}

func (t *memVoteTx) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return t.store.question(id)
}

func (t *memVoteTx) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := t.store.users[id]
	if !ok {
		return nil, fmt.Errorf("lock user: %w", models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (t *memVoteTx) HasVoted(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	for _, v := range t.store.votes[userID] {
		if v.QuestionID == questionID {
			return true, nil
		}
	}
	for _, v := range t.appended {
		if v.userID == userID && v.record.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memVoteTx) IncrementVotes(ctx context.Context, nomineeID uuid.UUID) (int64, error) {
	n, ok := t.store.nominees[nomineeID]
	if !ok {
		return 0, fmt.Errorf("increment votes: %w", models.ErrNotFound)
	}
	t.increments[nomineeID]++
	return n.Votes + t.increments[nomineeID], nil
}

func (t *memVoteTx) AppendVote(ctx context.Context, userID uuid.UUID, record models.VoteRecord) error {
	voted, _ := t.HasVoted(ctx, userID, record.QuestionID)
	if voted {
		return models.ErrAlreadyVoted
	}
	t.appended = append(t.appended, pendingVote{userID: userID, record: record})
	return nil
}
