package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type PostgresOptions struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     logger.LogLevel
}

// PostgresStore is the gorm backed Store.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string, opts PostgresOptions) (*PostgresStore, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	gormLogger := logger.New(
		logging.Log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) EnsureUser(ctx context.Context, id uuid.UUID, email string, role models.Role) (*models.User, error) {
	db := s.db.WithContext(ctx)
	row := userRow{ID: id, Email: email, Role: string(role)}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).Create(&row).Error; err != nil {
		return nil, storeErr("ensure user", err)
	}
	return s.GetUser(ctx, id)
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeErr("get user", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) FinalizeVoting(ctx context.Context, userID uuid.UUID, at time.Time) (*models.User, error) {
	err := s.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ? AND voting_finalized = ?", userID, false).
		Updates(map[string]interface{}{
			"voting_finalized":    true,
			"voting_finalized_at": at,
			"updated_at":          at,
		}).Error
	if err != nil {
		return nil, storeErr("finalize voting", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *PostgresStore) ListVotes(ctx context.Context, userID uuid.UUID) ([]models.VoteRecord, error) {
	var rows []voteRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("voted_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, storeErr("list votes", err)
	}
	records := make([]models.VoteRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, models.VoteRecord{QuestionID: r.QuestionID, VotedFor: r.NomineeID, VotedAt: r.VotedAt})
	}
	return records, nil
}

func (s *PostgresStore) InVoteTx(ctx context.Context, fn func(tx VoteTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgVoteTx{db: tx})
	})
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q *models.Question) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qr := newQuestionRow(q)
		if err := tx.Create(&qr).Error; err != nil {
			return storeErr("create question", err)
		}
		q.CreatedAt, q.UpdatedAt = qr.CreatedAt, qr.UpdatedAt

		for i := range q.Nominees {
			q.Nominees[i].QuestionID = q.ID
			nr := newNomineeRow(&q.Nominees[i])
			if err := tx.Create(&nr).Error; err != nil {
				return storeErr("create nominee", err)
			}
			q.Nominees[i].CreatedAt, q.Nominees[i].UpdatedAt = nr.CreatedAt, nr.UpdatedAt
		}
		return nil
	})
}

func (s *PostgresStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current questionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", q.ID).Error; err != nil {
			return storeErr("lock question", err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&questionRow{}).Where("id = ?", q.ID).Updates(map[string]interface{}{
			"title":       q.Title,
			"description": q.Description,
			"start_time":  q.StartTime,
			"end_time":    q.EndTime,
			"is_active":   q.IsActive,
			"updated_at":  now,
		}).Error; err != nil {
			return storeErr("update question", err)
		}

		var existing []nomineeRow
		if err := tx.Where("question_id = ?", q.ID).Find(&existing).Error; err != nil {
			return storeErr("load nominees", err)
		}
		stale := make(map[uuid.UUID]struct{}, len(existing))
		for _, n := range existing {
			stale[n.ID] = struct{}{}
		}

		for i := range q.Nominees {
			n := &q.Nominees[i]
			n.QuestionID = q.ID
			if _, ok := stale[n.ID]; !ok {
				nr := newNomineeRow(n)
				nr.Votes = 0
				if err := tx.Create(&nr).Error; err != nil {
					return storeErr("create nominee", err)
				}
				continue
			}
			delete(stale, n.ID)

			updates := map[string]interface{}{
				"name":       n.Name,
				"position":   n.Position,
				"updated_at": now,
			}
			if n.TempImagePath != nil {
				updates["image_job_id"] = n.ImageJobID
				updates["temp_image_path"] = n.TempImagePath
				updates["image_processed"] = false
			}
			if err := tx.Model(&nomineeRow{}).Where("id = ?", n.ID).Updates(updates).Error; err != nil {
				return storeErr("update nominee", err)
			}
		}

		if len(stale) > 0 {
			ids := make([]uuid.UUID, 0, len(stale))
			for id := range stale {
				ids = append(ids, id)
			}
			if err := tx.Where("id IN ?", ids).Delete(&nomineeRow{}).Error; err != nil {
				return storeErr("delete nominees", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&questionRow{})
		if res.Error != nil {
			return storeErr("delete question", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete question: %w", models.ErrNotFound)
		}
		if err := tx.Where("question_id = ?", id).Delete(&nomineeRow{}).Error; err != nil {
			return storeErr("delete nominees", err)
		}
		return nil
	})
}

func (s *PostgresStore) SetQuestionActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := s.db.WithContext(ctx).Model(&questionRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return storeErr("set question active", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set question active: %w", models.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return loadQuestion(s.db.WithContext(ctx), id)
}

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var rows []questionRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, storeErr("list questions", err)
	}
	return attachNominees(s.db.WithContext(ctx), rows)
}

func (s *PostgresStore) ListOpenQuestions(ctx context.Context, now time.Time) ([]models.Question, error) {
	var rows []questionRow
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND start_time <= ? AND end_time >= ?", true, now, now).
		Order("end_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("list open questions", err)
	}
	return attachNominees(s.db.WithContext(ctx), rows)
}

func (s *PostgresStore) GetNominee(ctx context.Context, id uuid.UUID) (*models.Nominee, error) {
	var row nomineeRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeErr("get nominee", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) PublishNomineeImage(ctx context.Context, nomineeID, jobID uuid.UUID, imagePath string) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&nomineeRow{}).
		Where("id = ? AND image_job_id = ?", nomineeID, jobID).
		Updates(map[string]interface{}{
			"image":           imagePath,
			"image_processed": true,
			"image_job_id":    nil,
			"temp_image_path": nil,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return storeErr("publish nominee image", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&nomineeRow{}).Where("id = ?", nomineeID).Count(&count).Error; err != nil {
		return storeErr("publish nominee image", err)
	}
	if count == 0 {
		return fmt.Errorf("publish nominee image: %w", models.ErrNotFound)
	}
	return fmt.Errorf("publish nominee image: %w", models.ErrSuperseded)
}

func (s *PostgresStore) ReleaseNomineeImageJob(ctx context.Context, nomineeID, jobID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&nomineeRow{}).
		Where("id = ? AND image_job_id = ?", nomineeID, jobID).
		Updates(map[string]interface{}{
			"image_processed": gorm.Expr("image IS NOT NULL"),
			"image_job_id":    nil,
			"temp_image_path": nil,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return storeErr("release nominee image job", err)
	}
	return nil
}

type pgVoteTx struct {
	db *gorm.DB
}

func (t *pgVoteTx) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	return loadQuestion(t.db.WithContext(ctx), id)
}

func (t *pgVoteTx) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row userRow
	if err := t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeErr("lock user", err)
	}
	return row.toModel(), nil
}

func (t *pgVoteTx) HasVoted(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&voteRow{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("check vote history", err)
	}
	return count > 0, nil
}

func (t *pgVoteTx) IncrementVotes(ctx context.Context, nomineeID uuid.UUID) (int64, error) {
	var votes []int64
	err := t.db.WithContext(ctx).
		Raw("UPDATE nominees SET votes = votes + 1, updated_at = NOW() WHERE id = ? RETURNING votes", nomineeID).
		Scan(&votes).Error
	if err != nil {
		return 0, storeErr("increment votes", err)
	}
	if len(votes) == 0 {
		return 0, fmt.Errorf("increment votes: %w", models.ErrNotFound)
	}
	return votes[0], nil
}

func (t *pgVoteTx) AppendVote(ctx context.Context, userID uuid.UUID, record models.VoteRecord) error {
	row := voteRow{
		UserID:     userID,
		QuestionID: record.QuestionID,
		NomineeID:  record.VotedFor,
		VotedAt:    record.VotedAt,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrAlreadyVoted
		}
		return storeErr("append vote", err)
	}
	return nil
}

func loadQuestion(db *gorm.DB, id uuid.UUID) (*models.Question, error) {
	var row questionRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, storeErr("get question", err)
	}
	var nominees []nomineeRow
	if err := db.Where("question_id = ?", id).Order("position ASC").Find(&nominees).Error; err != nil {
		return nil, storeErr("get nominees", err)
	}
	return row.toModel(nominees), nil
}

func attachNominees(db *gorm.DB, rows []questionRow) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(rows))
	if len(rows) == 0 {
		return questions, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var nominees []nomineeRow
	if err := db.Where("question_id IN ?", ids).Order("position ASC").Find(&nominees).Error; err != nil {
		return nil, storeErr("list nominees", err)
	}
	byQuestion := make(map[uuid.UUID][]nomineeRow, len(rows))
	for _, n := range nominees {
		byQuestion[n.QuestionID] = append(byQuestion[n.QuestionID], n)
	}

	for i := range rows {
		questions = append(questions, *rows[i].toModel(byQuestion[rows[i].ID]))
	}
	return questions, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
}
