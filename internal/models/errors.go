package models

import "errors"

var (
	ErrVotingNotActive  = errors.New("voting is not active for this question")
	ErrAlreadyVoted     = errors.New("user has already voted on this question")
	ErrInvalidNominee   = errors.New("nominee does not belong to this question")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrQueueUnavailable = errors.New("image queue unavailable")
	ErrProcessingFailed = errors.New("image processing failed")
	ErrStorage          = errors.New("storage error")

	// ErrSuperseded is returned when an image job lost its nominee to a newer upload.
	ErrSuperseded = errors.New("image job superseded by a newer upload")
)
