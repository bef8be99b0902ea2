package handlers

import (
	"net/http"

	"employee-poll-backend/internal/middleware"
	"employee-poll-backend/internal/models"
	"employee-poll-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Submit godoc
// @Summary     Submit a vote
// @Description Casts the caller's single vote for a nominee of an active question.
// @Tags        vote
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SubmitVoteRequest true "Vote"
// @Success     200 {object} models.VoteResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse "Voting not active"
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse "Already voted"
// @Failure     500 {object} models.ErrorResponse
// @Router      /vote/submit [post]
func (h *VoteHandler) Submit(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "questionId and nomineeId are required")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		badRequest(c, "invalid questionId")
		return
	}
	nomineeID, err := uuid.Parse(req.NomineeID)
	if err != nil {
		badRequest(c, "invalid nomineeId")
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), user.ID, questionID, nomineeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.VoteResponse{
		Success:    true,
		Message:    "Vote submitted successfully",
		QuestionID: result.QuestionID.String(),
		NomineeID:  result.NomineeID.String(),
		Votes:      result.Votes,
	})
}

// Questions godoc
// @Summary     List open questions
// @Description Questions currently accepting votes, with the caller's vote when present.
// @Tags        vote
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.QuestionListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /vote/questions [get]
func (h *VoteHandler) Questions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	questions, err := h.votes.OpenQuestions(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.QuestionListResponse{Questions: questions})
}

// History godoc
// @Summary     Vote history
// @Tags        vote
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.VoteHistoryResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /vote/history [get]
func (h *VoteHandler) History(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	history, err := h.votes.History(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Finalize godoc
// @Summary     Finalize voting
// @Description Marks the caller's voting as finished. Idempotent.
// @Tags        vote
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.VoteHistoryResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /vote/finalize [post]
func (h *VoteHandler) Finalize(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if _, err := h.votes.Finalize(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	history, err := h.votes.History(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
