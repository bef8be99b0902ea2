// Package realtime pushes question events to connected browsers over WebSockets.
package realtime

import (
	"github.com/google/uuid"
)

const (
	EventVoteUpdate     = "vote-update"
	EventImageProcessed = "imageProcessed"
	EventRoomJoined     = "roomJoined"
	EventRoomLeft       = "roomLeft"
	EventError          = "error"
)

// Notifier delivers best-effort events. An empty room addresses every connected client.
type Notifier interface {
	Broadcast(room, event string, payload any)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Broadcast(string, string, any) {}

func QuestionRoom(questionID uuid.UUID) string {
	return "question:" + questionID.String()
}

// Frame is the envelope of every server message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Event payloads
func VoteUpdatePayload(questionID, nomineeID uuid.UUID, votes int64) map[string]interface{} {
	return map[string]interface{}{
		"questionId": questionID.String(),
		"nomineeId":  nomineeID.String(),
		"votes":      votes,
	}
}

func ImageProcessedPayload(nomineeID, questionID uuid.UUID, imagePath string) map[string]interface{} {
	return map[string]interface{}{
		"nomineeId":  nomineeID.String(),
		"questionId": questionID.String(),
		"imagePath":  imagePath,
	}
}

func RoomPayload(questionID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"questionId": questionID.String(),
	}
}

func ErrorPayload(message string) map[string]interface{} {
	return map[string]interface{}{
		"message": message,
	}
}
