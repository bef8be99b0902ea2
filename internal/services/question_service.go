package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Upload is a staged nominee image awaiting processing.
type Upload struct {
	TempPath     string
	OriginalName string
}

type NomineeInput struct {
	// ID keeps an existing nominee (and its votes) on update.
	ID     *uuid.UUID
	Name   string
	Upload *Upload
}

type QuestionInput struct {
	Title       string
	Description string
	// Duration is the voting window length. On update zero keeps the current length.
	Duration  time.Duration
	StartTime *time.Time
	Nominees  []NomineeInput
}

type SaveResult struct {
	Question     *models.Question
	ImagesQueued int
}

type QuestionService struct {
	store    database.Store
	queue    queue.Queue
	temp     *storage.TempDir
	images   storage.ImageStore
	priority int
}

func NewQuestionService(store database.Store, q queue.Queue, temp *storage.TempDir, images storage.ImageStore, priority int) *QuestionService {
	return &QuestionService{
		store:    store,
		queue:    q,
		temp:     temp,
		images:   images,
		priority: priority,
	}
}

func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (*SaveResult, error) {
	if err := s.validate(in, true); err != nil {
		s.discardUploads(in)
		return nil, err
	}

	start := time.Now().UTC()
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}
	q := &models.Question{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartTime:   start,
		EndTime:     start.Add(in.Duration),
		IsActive:    true,
	}
	for i, n := range in.Nominees {
		if n.ID != nil {
			s.discardUploads(in)
			return nil, fmt.Errorf("%w: nominee_%d_id is only allowed when editing", models.ErrValidation, i)
		}
		q.Nominees = append(q.Nominees, s.nominee(uuid.New(), i, n))
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		s.discardUploads(in)
		return nil, err
	}

	queued := s.enqueueImages(ctx, q, in)
	logging.Log.WithFields(logrus.Fields{
		"question_id": q.ID,
		"nominees":    len(q.Nominees),
		"images":      queued,
	}).Info("Question created")

	created, err := s.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Question: created, ImagesQueued: queued}, nil
}

// Update edits a question in place. Nominees referenced by ID keep their identity and votes,
// nominees without an ID are created and unreferenced ones are removed.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, in QuestionInput) (*SaveResult, error) {
	if err := s.validate(in, false); err != nil {
		s.discardUploads(in)
		return nil, err
	}

	current, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		s.discardUploads(in)
		return nil, err
	}

	start := current.StartTime
	if in.StartTime != nil {
		start = in.StartTime.UTC()
	}
	duration := current.EndTime.Sub(current.StartTime)
	if in.Duration > 0 {
		duration = in.Duration
	}

	q := &models.Question{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartTime:   start,
		EndTime:     start.Add(duration),
		IsActive:    current.IsActive,
	}

	seen := make(map[uuid.UUID]bool)
	for i, n := range in.Nominees {
		nomineeID := uuid.New()
		if n.ID != nil {
			if _, ok := current.Nominee(*n.ID); !ok || seen[*n.ID] {
				s.discardUploads(in)
				return nil, fmt.Errorf("%w: nominee_%d_id %s is not a nominee of this question", models.ErrValidation, i, *n.ID)
			}
			nomineeID = *n.ID
			seen[nomineeID] = true
		}
		q.Nominees = append(q.Nominees, s.nominee(nomineeID, i, n))
	}

	if err := s.store.SaveQuestion(ctx, q); err != nil {
		s.discardUploads(in)
		return nil, err
	}

	for _, old := range current.Nominees {
		if !seen[old.ID] {
			s.discardNomineeFiles(ctx, &old)
		}
	}

	queued := s.enqueueImages(ctx, q, in)
	logging.Log.WithFields(logrus.Fields{
		"question_id": q.ID,
		"nominees":    len(q.Nominees),
		"images":      queued,
	}).Info("Question updated")

	updated, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaveResult{Question: updated, ImagesQueued: queued}, nil
}

func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	for i := range current.Nominees {
		s.discardNomineeFiles(ctx, &current.Nominees[i])
	}
	logging.Log.WithField("question_id", id).Info("Question deleted")
	return nil
}

func (s *QuestionService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Question, error) {
	if err := s.store.SetQuestionActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.store.GetQuestion(ctx, id)
}

func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

func (s *QuestionService) List(ctx context.Context) ([]models.Question, error) {
	return s.store.ListQuestions(ctx)
}

func (s *QuestionService) validate(in QuestionInput, creating bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if len(in.Nominees) < 2 {
		return fmt.Errorf("%w: at least 2 nominees are required", models.ErrValidation)
	}
	for i, n := range in.Nominees {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("%w: nominee_%d_name is required", models.ErrValidation, i)
		}
	}
	if creating || in.Duration != 0 {
		if in.Duration < models.MinVotingWindow {
			return fmt.Errorf("%w: duration must be at least %d hours", models.ErrValidation, int(models.MinVotingWindow.Hours()))
		}
	}
	return nil
}

// nominee builds the record for one input. A staged upload gets a pre-generated job ID that marks
// the nominee as owned by that job until it publishes.
func (s *QuestionService) nominee(id uuid.UUID, position int, in NomineeInput) models.Nominee {
	n := models.Nominee{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		Position: position,
	}
	if in.Upload != nil {
		jobID := uuid.New()
		tempPath := in.Upload.TempPath
		n.ImageJobID = &jobID
		n.TempImagePath = &tempPath
	}
	return n
}

// enqueueImages schedules one job per staged upload. A failed enqueue leaves the nominee on its
// placeholder image; it never fails the save.
func (s *QuestionService) enqueueImages(ctx context.Context, q *models.Question, in QuestionInput) int {
	queued := 0
	for i, n := range q.Nominees {
		if n.TempImagePath == nil || n.ImageJobID == nil {
			continue
		}
		_, err := s.queue.Enqueue(ctx, queue.Payload{
			NomineeID:    n.ID,
			QuestionID:   q.ID,
			TempFilePath: *n.TempImagePath,
			OriginalName: in.Nominees[i].Upload.OriginalName,
		}, queue.EnqueueOptions{JobID: *n.ImageJobID, Priority: s.priority})
		if err != nil {
			logging.Log.WithError(err).WithField("nominee_id", n.ID).Warn("Failed to enqueue image job")
			if err := s.store.ReleaseNomineeImageJob(ctx, n.ID, *n.ImageJobID); err != nil {
				logging.Log.WithError(err).WithField("nominee_id", n.ID).Error("Failed to release image job")
			}
			s.removeTemp(*n.TempImagePath)
			continue
		}
		queued++
	}
	return queued
}

func (s *QuestionService) discardUploads(in QuestionInput) {
	for _, n := range in.Nominees {
		if n.Upload != nil {
			s.removeTemp(n.Upload.TempPath)
		}
	}
}

func (s *QuestionService) discardNomineeFiles(ctx context.Context, n *models.Nominee) {
	if n.Image != nil && s.images != nil {
		if err := s.images.Delete(ctx, *n.Image); err != nil && !errors.Is(err, models.ErrValidation) {
			logging.Log.WithError(err).WithField("nominee_id", n.ID).Warn("Failed to delete nominee image")
		}
	}
	if n.TempImagePath != nil {
		s.removeTemp(*n.TempImagePath)
	}
}

func (s *QuestionService) removeTemp(path string) {
	if s.temp == nil {
		return
	}
	if err := s.temp.Remove(path); err != nil {
		logging.Log.WithError(err).Warnf("Failed to remove temp upload %s", path)
	}
}
