package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/imageproc"
	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/realtime"
	"employee-poll-backend/internal/storage"

	"github.com/sirupsen/logrus"
)

type ImageService struct {
	store    database.Store
	images   storage.ImageStore
	temp     *storage.TempDir
	notifier realtime.Notifier
	opts     imageproc.Options
	timeout  time.Duration
}

func NewImageService(
	store database.Store,
	images storage.ImageStore,
	temp *storage.TempDir,
	notifier realtime.Notifier,
	opts imageproc.Options,
	timeout time.Duration,
) *ImageService {
	if notifier == nil {
		notifier = realtime.NopNotifier{}
	}
	return &ImageService{
		store:    store,
		images:   images,
		temp:     temp,
		notifier: notifier,
		opts:     opts,
		timeout:  timeout,
	}
}

// Process turns a staged upload into the nominee's published image. Returned errors are retryable
// from the queue's point of view. The staged file is removed once the job succeeds or when this
// was its last attempt.
func (s *ImageService) Process(ctx context.Context, job *queue.Job) (err error) {
	p := job.Payload
	log := logging.Log.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"nominee_id": p.NomineeID,
		"attempt":    job.Attempts,
	})

	defer func() {
		if err == nil || job.FinalAttempt() {
			if rmErr := s.temp.Remove(p.TempFilePath); rmErr != nil {
				log.WithError(rmErr).Warn("Failed to remove temp upload")
			}
		}
	}()

	nominee, err := s.store.GetNominee(ctx, p.NomineeID)
	if err != nil {
		return fmt.Errorf("failed to load nominee: %w", err)
	}
	if _, err := s.store.GetQuestion(ctx, p.QuestionID); err != nil {
		return fmt.Errorf("failed to load question: %w", err)
	}
	if nominee.ImageJobID == nil || *nominee.ImageJobID != job.ID {
		log.Info("Image job superseded, skipping")
		return nil
	}

	data, err := os.ReadFile(p.TempFilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to read upload: %w", models.ErrProcessingFailed, err)
	}

	tctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := imageproc.TransformContext(tctx, data, s.opts)
	if err != nil {
		return err
	}

	filename := imageproc.Filename(time.Now(), res.Ext)
	publicPath, err := s.images.Save(ctx, filename, res.Data, res.ContentType)
	if err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.store.PublishNomineeImage(ctx, nominee.ID, job.ID, publicPath); err != nil {
		if delErr := s.images.Delete(ctx, publicPath); delErr != nil {
			log.WithError(delErr).Warn("Failed to delete unpublished image")
		}
		if errors.Is(err, models.ErrSuperseded) {
			log.Info("Image job superseded during processing, discarded output")
			return nil
		}
		return fmt.Errorf("failed to publish image: %w", err)
	}

	if nominee.Image != nil && *nominee.Image != publicPath {
		if err := s.images.Delete(ctx, *nominee.Image); err != nil {
			log.WithError(err).Warn("Failed to delete previous nominee image")
		}
	}

	log.WithField("image", publicPath).Info("Nominee image processed")
	s.notifier.Broadcast(realtime.QuestionRoom(p.QuestionID), realtime.EventImageProcessed,
		realtime.ImageProcessedPayload(p.NomineeID, p.QuestionID, publicPath))
	return nil
}
