package handlers

import (
	"errors"
	"net/http"

	"employee-poll-backend/internal/logging"
	"employee-poll-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrVotingNotActive):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidNominee), errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrQueueUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logging.Log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
		c.JSON(status, models.ErrorResponse{Success: false, Error: "internal server error"})
		return
	}
	c.JSON(status, models.ErrorResponse{Success: false, Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: msg})
}
