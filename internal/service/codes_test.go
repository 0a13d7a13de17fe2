package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/persistence/inmemory"
)

func Test_Generate_ProducesValidCodes(t *testing.T) {
	req := require.New(t)
	gen := NewCodeGenerator(inmemory.NewStore().Rooms())

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := gen.Generate(context.Background())
		req.NoError(err)
		req.Len(code, domain.CodeLength)
		for _, c := range code {
			req.Contains(domain.CodeChars, string(c))
		}
		seen[code] = true
	}
	// 50 draws from a 36^8 space colliding would mean a broken generator.
	req.Len(seen, 50)
}

func Test_Generate_SkipsTakenCodes(t *testing.T) {
	req := require.New(t)
	store := inmemory.NewStore()
	rooms := store.Rooms()
	gen := NewCodeGenerator(rooms)

	code, err := gen.Generate(context.Background())
	req.NoError(err)

	room := domain.NewRoom(code, domain.RoomSpec{Name: "Taken"}, "creator-1", time.Now())
	req.NoError(rooms.Save(context.Background(), room))

	next, err := gen.Generate(context.Background())
	req.NoError(err)
	req.NotEqual(code, next)
}

type saturatedRooms struct {
	domain.RoomRepository
}

func (saturatedRooms) CodeExists(ctx context.Context, code string) (bool, error) {
	return true, nil
}

func Test_Generate_Exhaustion(t *testing.T) {
	req := require.New(t)
	gen := NewCodeGenerator(saturatedRooms{})

	_, err := gen.Generate(context.Background())
	req.ErrorIs(err, domain.ErrCodeGenerationExhausted)
}

func Test_GenerateDisplayName_Deterministic(t *testing.T) {
	req := require.New(t)

	first := GenerateDisplayName("user-1")
	second := GenerateDisplayName("user-1")
	other := GenerateDisplayName("user-2")

	req.Equal(first, second)
	req.NotEmpty(first)
	req.NotEqual("", other)

	// adjective + noun + numeric suffix
	req.True(strings.IndexFunc(first, func(r rune) bool { return r >= '0' && r <= '9' }) > 0)
}
