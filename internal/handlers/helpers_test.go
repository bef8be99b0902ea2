package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"employee-poll-backend/internal/database"
	"employee-poll-backend/internal/handlers"
	"employee-poll-backend/internal/middleware"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/queue"
	"employee-poll-backend/internal/services"
	"employee-poll-backend/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const maxUpload = 1 << 20

type env struct {
	store     *database.MemoryStore
	queue     *queue.MemoryQueue
	temp      *storage.TempDir
	questions *services.QuestionService
	votes     *services.VoteService
	router    *gin.Engine
	user      *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	temp, err := storage.NewTempDir(filepath.Join(root, "tmp"))
	require.NoError(t, err)
	images, err := storage.NewLocalStore(filepath.Join(root, "public"))
	require.NoError(t, err)

	e := &env{
		store: database.NewMemoryStore(),
		queue: queue.NewMemoryQueue(queue.DefaultPolicy()),
		temp:  temp,
	}
	t.Cleanup(func() { _ = e.queue.Shutdown(context.Background()) })
	e.questions = services.NewQuestionService(e.store, e.queue, temp, images, 1)
	e.votes = services.NewVoteService(e.store, nil)

	voteHandler := handlers.NewVoteHandler(e.votes)
	questionsHandler := handlers.NewQuestionsHandler(e.questions, temp, maxUpload,
		[]string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	queueHandler := handlers.NewQueueHandler(e.queue)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if e.user != nil {
			c.Set(middleware.UserKey, e.user)
		}
		c.Next()
	})
	api.POST("/vote/submit", voteHandler.Submit)
	api.GET("/vote/questions", voteHandler.Questions)
	api.GET("/vote/history", voteHandler.History)
	api.POST("/vote/finalize", voteHandler.Finalize)
	api.GET("/admin/questions", questionsHandler.List)
	api.POST("/admin/questions", questionsHandler.Create)
	api.GET("/admin/questions/:id", questionsHandler.Get)
	api.PUT("/admin/questions/:id", questionsHandler.Update)
	api.DELETE("/admin/questions/:id", questionsHandler.Delete)
	api.PATCH("/admin/questions/:id/active", questionsHandler.SetActive)
	api.GET("/admin/queue-status", queueHandler.Status)
	e.router = router
	return e
}

func (e *env) login(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.store.EnsureUser(context.Background(), uuid.New(), email, role)
	require.NoError(t, err)
	e.user = u
	return u
}

func (e *env) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(method, path, bytes.NewBuffer(body), "application/json")
}

func (e *env) tempFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.temp.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (e *env) seedQuestion(t *testing.T, nominees ...string) *models.Question {
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
	require.NoError(t, e.store.CreateQuestion(context.Background(), q))
	return q
}

type formFile struct {
	field string
	name  string
	data  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 250, G: 180, B: 20, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
