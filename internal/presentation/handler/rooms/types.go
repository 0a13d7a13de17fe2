package rooms

import (
	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/validate"
)

const (
	minNameLength        = 3
	maxNameLength        = 100
	maxDescriptionLength = 500
	minParticipants      = 2
	maxParticipants      = 50
	minDurationHours     = 1
	maxDurationHours     = 72
	maxDisplayNameLength = 50

	defaultMessageLimit = 100
)

type createRoomRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxParticipants *int   `json:"maxParticipants"`
	IsPrivate       *bool  `json:"isPrivate"`
	DurationHours   *int   `json:"durationHours"`
}

func (r createRoomRequest) Validate() error {
	errs := []error{
		validate.Field("name", r.Name, validate.Compose(
			validate.Required(),
			validate.LengthBetween(minNameLength, maxNameLength),
		)),
		validate.Field("description", r.Description, validate.MaxLength(maxDescriptionLength)),
	}
	if r.MaxParticipants != nil {
		errs = append(errs, validate.IntBetween("maxParticipants", *r.MaxParticipants, minParticipants, maxParticipants))
	}
	if r.DurationHours != nil {
		errs = append(errs, validate.IntBetween("durationHours", *r.DurationHours, minDurationHours, maxDurationHours))
	}
	return validate.Join(errs...)
}

func (r createRoomRequest) toSpec() domain.RoomSpec {
	spec := domain.RoomSpec{
		Name:        r.Name,
		Description: r.Description,
		// Private by default: rooms are meant to be shared by code.
		IsPrivate: true,
	}
	if r.MaxParticipants != nil {
		spec.MaxParticipants = *r.MaxParticipants
	}
	if r.IsPrivate != nil {
		spec.IsPrivate = *r.IsPrivate
	}
	if r.DurationHours != nil {
		spec.DurationHours = *r.DurationHours
	}
	return spec
}

type joinRoomRequest struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
}

func (r joinRoomRequest) Validate() error {
	return validate.Join(
		validate.Field("roomCode", domain.NormalizeCode(r.RoomCode), validate.Compose(
			validate.Required(),
			validate.Length(domain.CodeLength),
			validate.Alphanumeric(),
		)),
		validate.Field("displayName", r.DisplayName, validate.MaxLength(maxDisplayNameLength)),
	)
}

type updateSettingsRequest struct {
	Name            *string `json:"roomName"`
	Description     *string `json:"description"`
	MaxParticipants *int    `json:"maxParticipants"`
	ExtendHours     *int    `json:"extendHours"`
	IsActive        *bool   `json:"isActive"`
}

func (r updateSettingsRequest) Validate() error {
	errs := []error{}
	if r.Name != nil {
		errs = append(errs, validate.Field("roomName", *r.Name, validate.Compose(
			validate.Required(),
			validate.LengthBetween(minNameLength, maxNameLength),
		)))
	}
	if r.Description != nil {
		errs = append(errs, validate.Field("description", *r.Description, validate.MaxLength(maxDescriptionLength)))
	}
	if r.MaxParticipants != nil {
		errs = append(errs, validate.IntBetween("maxParticipants", *r.MaxParticipants, minParticipants, maxParticipants))
	}
	if r.ExtendHours != nil {
		errs = append(errs, validate.IntBetween("extendHours", *r.ExtendHours, minDurationHours, maxDurationHours))
	}
	return validate.Join(errs...)
}

type joinableResponse struct {
	RoomCode string `json:"roomCode"`
	CanJoin  bool   `json:"canJoin"`
	IsMember bool   `json:"isMember"`
}

type leaveResponse struct {
	RoomCode string `json:"roomCode"`
	Left     bool   `json:"left"`
}
