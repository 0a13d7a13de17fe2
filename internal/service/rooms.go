package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/metrics"
)

// EventPublisher fans room lifecycle events out to other consumers, for
// example over a message broker. Implementations are best effort and must
// never fail the operation that emitted the event.
type EventPublisher interface {
	RoomCreated(ctx context.Context, room *domain.Room)
	RoomExpired(ctx context.Context, code string)
	MemberJoined(ctx context.Context, participant *domain.Participant)
	MemberLeft(ctx context.Context, code, userID string)
}

// RoomService owns the room lifecycle: creation, joining, leaving, settings
// updates and expiry. All stateful room operations go through here.
type RoomService struct {
	rooms        domain.RoomRepository
	participants domain.ParticipantRepository
	messages     domain.MessageRepository
	tx           domain.TxRunner
	codes        *CodeGenerator
	announcer    domain.Announcer
	publisher    EventPublisher
	logger       logging.Logger

	now func() time.Time
}

func NewRoomService(
	rooms domain.RoomRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	tx domain.TxRunner,
	announcer domain.Announcer,
	publisher EventPublisher,
	logger logging.Logger,
) *RoomService {
	return &RoomService{
		rooms:        rooms,
		participants: participants,
		messages:     messages,
		tx:           tx,
		codes:        NewCodeGenerator(rooms),
		announcer:    announcer,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// SettingsPatch carries an update to room settings. Every field is optional
// and applied independently; nil means "leave unchanged".
type SettingsPatch struct {
	Name            *string
	Description     *string
	MaxParticipants *int
	ExtendHours     *int
	IsActive        *bool
}

func (s *RoomService) CreateRoom(ctx context.Context, spec domain.RoomSpec, creatorID string) (*RoomView, error) {
	now := s.now()

	var room *domain.Room
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		active, err := s.rooms.FindActiveByCreator(ctx, creatorID, now)
		if err != nil {
			return err
		}
		if len(active) >= domain.MaxRoomsPerCreator {
			return domain.ErrRoomLimitExceeded
		}

		code, err := s.codes.Generate(ctx)
		if err != nil {
			return err
		}

		room = domain.NewRoom(code, spec, creatorID, now)
		if err := s.rooms.Save(ctx, room); err != nil {
			return err
		}

		creator := domain.NewParticipant(code, creatorID, GenerateDisplayName(creatorID), domain.RoleCreator, now)
		return s.participants.Save(ctx, creator)
	})
	if err != nil {
		return nil, err
	}

	s.announcer.Announce(ctx, room.Code,
		fmt.Sprintf("%s created the roast room!", GenerateDisplayName(creatorID)))
	s.publisher.RoomCreated(ctx, room)
	metrics.RoomsCreated.Inc()

	s.logger.Info(logging.Rooms, logging.Lifecycle, "room created", map[logging.ExtraKey]any{
		"room_code": room.Code,
		"creator":   creatorID,
	})

	return s.loadView(ctx, room)
}

func (s *RoomService) JoinRoom(ctx context.Context, code, userID, displayName string) (*RoomView, error) {
	code = domain.NormalizeCode(code)
	now := s.now()

	var room *domain.Room
	var joined *domain.Participant
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		room, err = s.rooms.FindByCode(ctx, code)
		if err != nil {
			return err
		}

		if err := s.validateJoinable(ctx, room, now); err != nil {
			return err
		}

		existing, err := s.participants.FindByRoomAndUser(ctx, code, userID)
		if err != nil && !errors.Is(err, domain.ErrNotParticipant) {
			return err
		}

		if existing != nil {
			if existing.IsActive {
				return domain.ErrAlreadyJoined
			}
			existing.Reactivate(now)
			joined = existing
			return s.participants.Save(ctx, existing)
		}

		name := strings.TrimSpace(displayName)
		if name == "" {
			name = GenerateDisplayName(userID)
		}
		joined = domain.NewParticipant(code, userID, name, domain.RoleMember, now)
		return s.participants.Save(ctx, joined)
	})
	if err != nil {
		return nil, err
	}

	s.announcer.Announce(ctx, code,
		fmt.Sprintf("%s joined the roast session!", GenerateDisplayName(userID)))
	s.publisher.MemberJoined(ctx, joined)

	s.logger.Info(logging.Rooms, logging.Lifecycle, "user joined room", map[logging.ExtraKey]any{
		"room_code": code,
		"user_id":   userID,
	})

	// Refresh: the view must reflect the join that just committed.
	room, err = s.rooms.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.loadView(ctx, room)
}

func (s *RoomService) LeaveRoom(ctx context.Context, code, userID string) error {
	code = domain.NormalizeCode(code)

	participant, err := s.participants.FindByRoomAndUser(ctx, code, userID)
	if err != nil {
		return err
	}

	if err := s.participants.Deactivate(ctx, userID, code); err != nil {
		return err
	}

	s.announcer.Announce(ctx, code,
		fmt.Sprintf("%s left the roast session", participant.DisplayName))
	s.publisher.MemberLeft(ctx, code, userID)

	s.logger.Info(logging.Rooms, logging.Lifecycle, "user left room", map[logging.ExtraKey]any{
		"room_code": code,
		"user_id":   userID,
	})

	return nil
}

func (s *RoomService) UpdateSettings(ctx context.Context, code string, patch SettingsPatch, requesterID string) (*RoomView, error) {
	code = domain.NormalizeCode(code)
	now := s.now()

	var room *domain.Room
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		room, err = s.rooms.FindByCode(ctx, code)
		if err != nil {
			return err
		}

		if !room.IsCreator(requesterID) {
			return domain.ErrUnauthorized
		}

		if patch.Name != nil {
			room.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			room.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.MaxParticipants != nil {
			current, err := s.participants.CountActiveByRoom(ctx, code)
			if err != nil {
				return err
			}
			if *patch.MaxParticipants < current {
				return domain.InvalidLimitError(current)
			}
			room.MaxParticipants = *patch.MaxParticipants
		}
		if patch.ExtendHours != nil {
			room.ExtendExpiry(*patch.ExtendHours, now)
		}
		if patch.IsActive != nil {
			room.IsActive = *patch.IsActive
		}

		room.Touch(now)
		return s.rooms.Save(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(logging.Rooms, logging.Lifecycle, "room settings updated", map[logging.ExtraKey]any{
		"room_code": code,
		"user_id":   requesterID,
	})

	return s.loadView(ctx, room)
}

// UpdateActivity touches the participant's last-seen time. Best effort:
// failures are logged and swallowed, never surfaced to the caller.
func (s *RoomService) UpdateActivity(ctx context.Context, code, userID string) {
	code = domain.NormalizeCode(code)

	if err := s.participants.UpdateLastSeen(ctx, userID, code, s.now()); err != nil {
		s.logger.Warn(logging.Rooms, logging.Activity, "failed to update participant activity", map[logging.ExtraKey]any{
			"room_code":    code,
			"user_id":      userID,
			"errorMessage": err.Error(),
		})
	}
}

func (s *RoomService) IsUserInRoom(ctx context.Context, code, userID string) bool {
	participant, err := s.participants.FindByRoomAndUser(ctx, domain.NormalizeCode(code), userID)
	if err != nil {
		return false
	}
	return participant.IsActive
}

func (s *RoomService) CanUserJoin(ctx context.Context, code, userID string) bool {
	room, err := s.rooms.FindByCode(ctx, domain.NormalizeCode(code))
	if err != nil {
		return false
	}
	return s.validateJoinable(ctx, room, s.now()) == nil
}

func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*RoomView, error) {
	room, err := s.rooms.FindByCode(ctx, domain.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	return s.loadView(ctx, room)
}

// GetBasicRoomByCode returns the outsider view: counts and flags but no
// participant roster.
func (s *RoomService) GetBasicRoomByCode(ctx context.Context, code string) (*RoomView, error) {
	code = domain.NormalizeCode(code)

	room, err := s.rooms.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	count, err := s.participants.CountActiveByRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return newBasicRoomView(room, count, s.now()), nil
}

// GetRoomMessages returns the room's recent history, participants only.
func (s *RoomService) GetRoomMessages(ctx context.Context, code, userID string, limit int) ([]domain.Message, error) {
	code = domain.NormalizeCode(code)

	participant, err := s.participants.FindByRoomAndUser(ctx, code, userID)
	if err != nil {
		return nil, err
	}
	if !participant.IsActive {
		return nil, domain.ErrNotParticipant
	}

	return s.messages.FindByRoom(ctx, code, limit)
}

// GetUserRooms lists the rooms the user holds a participant row in.
func (s *RoomService) GetUserRooms(ctx context.Context, userID string) ([]RoomView, error) {
	codes, err := s.participants.FindRoomCodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	return s.basicViews(ctx, rooms)
}

// GetCreatedRooms lists the rooms the user created, newest first.
func (s *RoomService) GetCreatedRooms(ctx context.Context, creatorID string) ([]RoomView, error) {
	rooms, err := s.rooms.FindByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.basicViews(ctx, rooms)
}

// DeactivateExpiredRooms flips every active room past its deadline to
// inactive and announces the expiry once per room. Idempotent: an inactive
// room is never revisited. Returns how many rooms were deactivated.
func (s *RoomService) DeactivateExpiredRooms(ctx context.Context) (int, error) {
	now := s.now()

	expired, err := s.rooms.FindExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	deactivated := 0
	for i := range expired {
		room := &expired[i]
		room.IsActive = false
		room.Touch(now)
		if err := s.rooms.Save(ctx, room); err != nil {
			s.logger.Error(logging.Rooms, logging.Cleanup, "failed to deactivate expired room", map[logging.ExtraKey]any{
				"room_code":    room.Code,
				"errorMessage": err.Error(),
			})
			continue
		}

		s.announcer.Announce(ctx, room.Code,
			"This roast room has expired and is now closed. Thanks for the fashion fun!")
		s.publisher.RoomExpired(ctx, room.Code)
		metrics.RoomsExpired.Inc()
		deactivated++

		s.logger.Info(logging.Rooms, logging.Cleanup, "deactivated expired room", map[logging.ExtraKey]any{
			"room_code": room.Code,
		})
	}

	return deactivated, nil
}

func (s *RoomService) validateJoinable(ctx context.Context, room *domain.Room, now time.Time) error {
	if !room.IsActive {
		return domain.ErrRoomInactive
	}
	if room.IsExpired(now) {
		return domain.ErrRoomExpired
	}

	count, err := s.participants.CountActiveByRoom(ctx, room.Code)
	if err != nil {
		return err
	}
	if room.IsFull(count) {
		return domain.ErrRoomFull
	}
	return nil
}

func (s *RoomService) loadView(ctx context.Context, room *domain.Room) (*RoomView, error) {
	participants, err := s.participants.FindActiveByRoom(ctx, room.Code)
	if err != nil {
		return nil, err
	}
	return newRoomView(room, participants, s.now()), nil
}

func (s *RoomService) basicViews(ctx context.Context, rooms []domain.Room) ([]RoomView, error) {
	now := s.now()
	views := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		count, err := s.participants.CountActiveByRoom(ctx, rooms[i].Code)
		if err != nil {
			return nil, err
		}
		views = append(views, *newBasicRoomView(&rooms[i], count, now))
	}
	return views, nil
}
