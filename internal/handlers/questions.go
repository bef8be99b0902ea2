package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"employee-poll-backend/internal/imageproc"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/services"
	"employee-poll-backend/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var nomineeNameField = regexp.MustCompile(`^nominee_(\d+)_name$`)

const (
	// maxFormImages bounds how many full-size uploads one question form may carry.
	maxFormImages = 20
	formOverhead  = 1 << 20
)

type QuestionsHandler struct {
	questions    *services.QuestionService
	temp         *storage.TempDir
	maxUpload    int64
	allowedTypes []string
}

func NewQuestionsHandler(questions *services.QuestionService, temp *storage.TempDir, maxUpload int64, allowedTypes []string) *QuestionsHandler {
	return &QuestionsHandler{
		questions:    questions,
		temp:         temp,
		maxUpload:    maxUpload,
		allowedTypes: allowedTypes,
	}
}

// List godoc
// @Summary     List questions
// @Description All questions with derived status, newest first.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.QuestionListResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /admin/questions [get]
func (h *QuestionsHandler) List(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	resp := models.QuestionListResponse{Questions: make([]models.QuestionResponse, 0, len(questions))}
	for i := range questions {
		resp.Questions = append(resp.Questions, models.NewQuestionResponse(&questions[i], now))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get a question
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Question ID (UUID)"
// @Success     200 {object} models.QuestionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/questions/{id} [get]
func (h *QuestionsHandler) Get(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewQuestionResponse(q, time.Now().UTC()))
}

// Create godoc
// @Summary     Create a question
// @Description Creates a question with nominees. Images are processed in the background.
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       title formData string true "Title"
// @Param       description formData string false "Description"
// @Param       duration formData number true "Voting window in hours (at least 3)"
// @Param       startTime formData string false "RFC3339 start time, defaults to now"
// @Param       nominee_0_name formData string true "Name of nominee 0 (repeat with increasing index)"
// @Param       nominee_0_image formData file false "Image of nominee 0"
// @Success     201 {object} models.SaveQuestionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /admin/questions [post]
func (h *QuestionsHandler) Create(c *gin.Context) {
	in, ok := h.parseForm(c, true)
	if !ok {
		return
	}

	result, err := h.questions.Create(c.Request.Context(), *in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saveResponse("Question created successfully", result))
}

// Update godoc
// @Summary     Update a question
// @Description Replaces title, window and nominee list. Send nominee_<i>_id to keep an existing nominee and its votes.
// @Tags        admin
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Question ID (UUID)"
// @Param       title formData string true "Title"
// @Param       description formData string false "Description"
// @Param       duration formData number false "Voting window in hours, keeps the current length when omitted"
// @Param       startTime formData string false "RFC3339 start time, keeps the current start when omitted"
// @Param       nominee_0_id formData string false "Existing nominee ID"
// @Param       nominee_0_name formData string true "Name of nominee 0"
// @Param       nominee_0_image formData file false "New image of nominee 0"
// @Success     200 {object} models.SaveQuestionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     413 {object} models.ErrorResponse
// @Router      /admin/questions/{id} [put]
func (h *QuestionsHandler) Update(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	in, ok := h.parseForm(c, false)
	if !ok {
		return
	}

	result, err := h.questions.Update(c.Request.Context(), id, *in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saveResponse("Question updated successfully", result))
}

// Delete godoc
// @Summary     Delete a question
// @Tags        admin
// @Security    Bearer
// @Param       id path string true "Question ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/questions/{id} [delete]
func (h *QuestionsHandler) Delete(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetActive godoc
// @Summary     Activate or deactivate a question
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Question ID (UUID)"
// @Param       request body models.SetActiveRequest true "Active flag"
// @Success     200 {object} models.QuestionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /admin/questions/{id}/active [patch]
func (h *QuestionsHandler) SetActive(c *gin.Context) {
	id, ok := questionID(c)
	if !ok {
		return
	}
	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "isActive is required")
		return
	}

	q, err := h.questions.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewQuestionResponse(q, time.Now().UTC()))
}

func questionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid question id")
		return uuid.Nil, false
	}
	return id, true
}

func saveResponse(message string, result *services.SaveResult) models.SaveQuestionResponse {
	if result.ImagesQueued > 0 {
		message = fmt.Sprintf("%s. %d image(s) processing in background", message, result.ImagesQueued)
	}
	return models.SaveQuestionResponse{
		Success:          true,
		Message:          message,
		ImagesProcessing: result.ImagesQueued,
		Question:         models.NewQuestionResponse(result.Question, time.Now().UTC()),
	}
}

// parseForm reads the question form and stages any nominee images. On failure it has already
// written the response and removed staged files.
func (h *QuestionsHandler) parseForm(c *gin.Context, creating bool) (*services.QuestionInput, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload*maxFormImages+formOverhead)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Success: false, Error: fmt.Sprintf("request body exceeds %d MB", tooLarge.Limit>>20)})
			return nil, false
		}
		badRequest(c, "failed to parse multipart form: "+err.Error())
		return nil, false
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	in := &services.QuestionInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	if raw := strings.TrimSpace(c.PostForm("duration")); raw != "" {
		hours, err := cast.ToFloat64E(raw)
		if err != nil || hours <= 0 {
			badRequest(c, "duration must be a positive number of hours")
			return nil, false
		}
		in.Duration = time.Duration(hours * float64(time.Hour))
	} else if creating {
		badRequest(c, "duration is required")
		return nil, false
	}

	if raw := strings.TrimSpace(c.PostForm("startTime")); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "startTime must be an RFC3339 timestamp")
			return nil, false
		}
		in.StartTime = &start
	}

	var indexes []int
	for field := range form.Value {
		if m := nomineeNameField.FindStringSubmatch(field); m != nil {
			i, _ := strconv.Atoi(m[1])
			indexes = append(indexes, i)
		}
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		n := services.NomineeInput{Name: c.PostForm(fmt.Sprintf("nominee_%d_name", i))}

		if raw := strings.TrimSpace(c.PostForm(fmt.Sprintf("nominee_%d_id", i))); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				h.discard(in)
				badRequest(c, fmt.Sprintf("nominee_%d_id is not a valid id", i))
				return nil, false
			}
			n.ID = &id
		}

		if files := form.File[fmt.Sprintf("nominee_%d_image", i)]; len(files) > 0 {
			upload, err := h.stage(files[0])
			if err != nil {
				h.discard(in)
				badRequest(c, fmt.Sprintf("nominee_%d_image: %s", i, err.Error()))
				return nil, false
			}
			n.Upload = upload
		}

		in.Nominees = append(in.Nominees, n)
	}

	return in, true
}

// stage validates an uploaded image by size and sniffed content type and saves it to the temp dir.
func (h *QuestionsHandler) stage(header *multipart.FileHeader) (*services.Upload, error) {
	if header.Size > h.maxUpload {
		return nil, fmt.Errorf("file exceeds %d MB", h.maxUpload>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > h.maxUpload {
		return nil, fmt.Errorf("file exceeds %d MB", h.maxUpload>>20)
	}

	contentType := mimetype.Detect(data).String()
	if !slices.Contains(h.allowedTypes, contentType) || !imageproc.Supported(contentType) {
		return nil, fmt.Errorf("unsupported file type %s", contentType)
	}

	path, err := h.temp.Save(data, header.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload")
	}
	return &services.Upload{TempPath: path, OriginalName: header.Filename}, nil
}

func (h *QuestionsHandler) discard(in *services.QuestionInput) {
	for _, n := range in.Nominees {
		if n.Upload != nil {
			h.temp.Remove(n.Upload.TempPath)
		}
	}
}
