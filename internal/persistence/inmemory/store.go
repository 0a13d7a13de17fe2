// Package inmemory is the process-local storage backend. It backs local
// development without a mongo instance and doubles as the test fixture for
// the service layer.
package inmemory

import (
	"sync"

	"github.com/roastparty/server/internal/domain"
)

// Store holds every collection behind one lock. Values are copied on the
// way in and out so callers never share memory with the store.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	rooms        map[string]domain.Room
	participants map[string]domain.Participant
	messages     []domain.Message
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]domain.Room),
		participants: make(map[string]domain.Participant),
	}
}

func (s *Store) Rooms() *RoomRepository               { return &RoomRepository{store: s} }
func (s *Store) Participants() *ParticipantRepository { return &ParticipantRepository{store: s} }
func (s *Store) Messages() *MessageRepository         { return &MessageRepository{store: s} }
func (s *Store) Tx() *TxRunner                        { return &TxRunner{store: s} }
