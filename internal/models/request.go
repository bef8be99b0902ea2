package models

type SubmitVoteRequest struct {
	QuestionID string `json:"questionId" binding:"required" example:"6f1d7c2e-8a4b-4f3e-9d1a-2b3c4d5e6f70"`
	NomineeID  string `json:"nomineeId" binding:"required" example:"0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
