package models

import "time"

type VoteResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	QuestionID string `json:"questionId"`
	NomineeID  string `json:"nomineeId"`
	Votes      int64  `json:"votes"`
}

type NomineeResponse struct {
	ID             string  `json:"id"`
	QuestionID     string  `json:"questionId"`
	Name           string  `json:"name"`
	Votes          int64   `json:"votes"`
	Image          *string `json:"image"`
	ImageProcessed bool    `json:"imageProcessed"`
	ImagePending   bool    `json:"imagePending"`
	ImageJobID     *string `json:"imageJobId,omitempty"`
}

type QuestionResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	IsActive    bool              `json:"isActive"`
	Status      QuestionStatus    `json:"status"`
	Nominees    []NomineeResponse `json:"nominees"`
	MyVote      *VoteRecord       `json:"myVote,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

type SaveQuestionResponse struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	ImagesProcessing int              `json:"imagesProcessing"`
	Question         QuestionResponse `json:"question"`
}

type VoteHistoryResponse struct {
	VotingFinalized   bool         `json:"votingFinalized"`
	VotingFinalizedAt *time.Time   `json:"votingFinalizedAt,omitempty"`
	Votes             []VoteRecord `json:"votes"`
}

type QueueStatusResponse struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// NewQuestionResponse flattens a question for the API. now is used to derive the status.
func NewQuestionResponse(q *Question, now time.Time) QuestionResponse {
	nominees := make([]NomineeResponse, 0, len(q.Nominees))
	for _, n := range q.Nominees {
		resp := NomineeResponse{
			ID:             n.ID.String(),
			QuestionID:     n.QuestionID.String(),
			Name:           n.Name,
			Votes:          n.Votes,
			Image:          n.Image,
			ImageProcessed: n.ImageProcessed,
			ImagePending:   n.ImagePending(),
		}
		if n.ImageJobID != nil {
			jobID := n.ImageJobID.String()
			resp.ImageJobID = &jobID
		}
		nominees = append(nominees, resp)
	}

	return QuestionResponse{
		ID:          q.ID.String(),
		Title:       q.Title,
		Description: q.Description,
		StartTime:   q.StartTime,
		EndTime:     q.EndTime,
		IsActive:    q.IsActive,
		Status:      q.Status(now),
		Nominees:    nominees,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}
