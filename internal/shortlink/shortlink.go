// Package shortlink maps recipe ids to short opaque tokens and back.
package shortlink

import (
	"errors"
	"fmt"

	"github.com/sqids/sqids-go"
)

// ErrInvalidToken is returned when a token does not decode to exactly one id.
var ErrInvalidToken = errors.New("invalid short link token")

// Encoder is safe for concurrent use.
type Encoder struct {
	sqids *sqids.Sqids
}

// New builds an encoder. An empty alphabet selects the library default.
func New(alphabet string, minLength int) (*Encoder, error) {
	if minLength < 0 || minLength > 255 {
		return nil, fmt.Errorf("short link min length %d out of range", minLength)
	}
	s, err := sqids.New(sqids.Options{
		Alphabet:  alphabet,
		MinLength: uint8(minLength),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create short link encoder: %w", err)
	}
	return &Encoder{sqids: s}, nil
}

func (e *Encoder) Encode(id uint) (string, error) {
	token, err := e.sqids.Encode([]uint64{uint64(id)})
	if err != nil {
		return "", fmt.Errorf("failed to encode id %d: %w", id, err)
	}
	return token, nil
}

// Decode only accepts canonical tokens: re-encoding the id must give back the
// same token, so padded or reordered variants are rejected.
func (e *Encoder) Decode(token string) (uint, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	ids := e.sqids.Decode(token)
	if len(ids) != 1 || ids[0] == 0 {
		return 0, ErrInvalidToken
	}
	id := uint(ids[0])
	canonical, err := e.Encode(id)
	if err != nil || canonical != token {
		return 0, ErrInvalidToken
	}
	return id, nil
}
