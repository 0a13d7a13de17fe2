package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/roastparty/server/internal/domain"
)

const maxCodeAttempts = 100

var codeCharsetLen = big.NewInt(int64(len(domain.CodeChars)))

// CodeGenerator produces unique 8-character room codes. Candidates are drawn
// uniformly from the code alphabet and checked against the store; generation
// fails after a bounded number of collisions.
type CodeGenerator struct {
	rooms domain.RoomRepository
}

func NewCodeGenerator(rooms domain.RoomRepository) *CodeGenerator {
	return &CodeGenerator{rooms: rooms}
}

func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}

		exists, err := g.rooms.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", domain.ErrCodeGenerationExhausted
}

func randomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(domain.CodeLength)

	for i := 0; i < domain.CodeLength; i++ {
		n, err := rand.Int(rand.Reader, codeCharsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(domain.CodeChars[n.Int64()])
	}

	return sb.String(), nil
}
