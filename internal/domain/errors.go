package domain

import (
	"errors"
	"fmt"
)

// RoomError is a failure with a stable machine-readable code. Handlers match
// on the sentinel values below with errors.Is and map them to transport
// responses; anything else is treated as internal.
type RoomError struct {
	Code    string
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

var (
	ErrRoomNotFound            = &RoomError{Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrRoomInactive            = &RoomError{Code: "ROOM_INACTIVE", Message: "this room is no longer active"}
	ErrRoomExpired             = &RoomError{Code: "ROOM_EXPIRED", Message: "this room has expired"}
	ErrRoomFull                = &RoomError{Code: "ROOM_FULL", Message: "this room is full"}
	ErrAlreadyJoined           = &RoomError{Code: "ALREADY_JOINED", Message: "you are already in this room"}
	ErrNotParticipant          = &RoomError{Code: "NOT_PARTICIPANT", Message: "you are not in this room"}
	ErrUnauthorized            = &RoomError{Code: "UNAUTHORIZED", Message: "only the room creator can perform this action"}
	ErrRoomLimitExceeded       = &RoomError{Code: "ROOM_LIMIT_EXCEEDED", Message: "active room limit reached"}
	ErrCodeGenerationExhausted = &RoomError{Code: "CODE_GENERATION_FAILED", Message: "unable to generate a unique room code"}
	ErrInvalidParticipantLimit = &RoomError{Code: "INVALID_PARTICIPANT_LIMIT", Message: "cannot reduce limit below current participants"}
	ErrValidation              = &RoomError{Code: "VALIDATION_ERROR", Message: "invalid request"}
	ErrInternal                = &RoomError{Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"}
)

// ValidationError wraps an aggregated request-shape failure while keeping the
// stable VALIDATION_ERROR code reachable through errors.Is.
func ValidationError(detail string) error {
	return &wrappedError{sentinel: ErrValidation, detail: detail}
}

// InvalidLimitError carries the current participant count in the message.
func InvalidLimitError(current int) error {
	return &wrappedError{
		sentinel: ErrInvalidParticipantLimit,
		detail:   fmt.Sprintf("cannot reduce limit below current participants (%d)", current),
	}
}

type wrappedError struct {
	sentinel *RoomError
	detail   string
}

func (e *wrappedError) Error() string {
	return e.detail
}

func (e *wrappedError) Unwrap() error {
	return e.sentinel
}

// ErrorCode extracts the stable code from any error in the taxonomy,
// falling back to INTERNAL_ERROR.
func ErrorCode(err error) string {
	var re *RoomError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrInternal.Code
}
