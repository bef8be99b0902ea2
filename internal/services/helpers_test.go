package services_test

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/imageproc"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/services"
	"employee-poll-backend/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type broadcast struct {
	Room    string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []broadcast
}

func (n *recordingNotifier) Broadcast(room, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, broadcast{Room: room, Event: event, Payload: payload})
}

func (n *recordingNotifier) Events() []broadcast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]broadcast(nil), n.events...)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func newUser(t *testing.T, store database.Store) *models.User {
	t.Helper()
	id := uuid.New()
	u, err := store.EnsureUser(context.Background(), id, id.String()+"@corp.example", models.RoleVoter)
	require.NoError(t, err)
	return u
}

// seedQuestion stores a question whose window contains now.
func seedQuestion(t *testing.T, store database.Store, nominees ...string) *models.Question {
	t.Helper()
	now := time.Now().UTC()
	q := &models.Question{
		ID:        uuid.New(),
		Title:     "Employee of the month",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(3 * time.Hour),
		IsActive:  true,
	}
	for i, name := range nominees {
		q.Nominees = append(q.Nominees, models.Nominee{ID: uuid.New(), Name: name, Position: i})
	}
	require.NoError(t, store.CreateQuestion(context.Background(), q))
	stored, err := store.GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	return stored
}

type fixture struct {
	store     *database.MemoryStore
	queue     *queue.MemoryQueue
	temp      *storage.TempDir
	images    *storage.LocalStore
	publicDir string
	notifier  *recordingNotifier
	questions *services.QuestionService
	processor *services.ImageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	temp, err := storage.NewTempDir(filepath.Join(root, "tmp"))
	require.NoError(t, err)
	publicDir := filepath.Join(root, "public")
	images, err := storage.NewLocalStore(publicDir)
	require.NoError(t, err)

	f := &fixture{
		store:     database.NewMemoryStore(),
		queue:     queue.NewMemoryQueue(queue.DefaultPolicy()),
		temp:      temp,
		images:    images,
		publicDir: publicDir,
		notifier:  &recordingNotifier{},
	}
	f.questions = services.NewQuestionService(f.store, f.queue, temp, images, 1)
	f.processor = services.NewImageService(f.store, images, temp, f.notifier, imageproc.Options{Size: 64, Quality: 80}, 10*time.Second)
	t.Cleanup(func() { _ = f.queue.Shutdown(context.Background()) })
	return f
}

// stage puts data into the temp dir the way the upload handler does.
func (f *fixture) stage(t *testing.T, data []byte, name string) *services.Upload {
	t.Helper()
	path, err := f.temp.Save(data, name)
	require.NoError(t, err)
	return &services.Upload{TempPath: path, OriginalName: name}
}

func (f *fixture) nextJob(t *testing.T) *queue.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	return job
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
