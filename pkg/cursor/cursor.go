// Package cursor encodes keyset positions as opaque tokens.
package cursor

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"fanclub/pkg/apperr"
)

// Position is the last row of a page ordered by (CreatedAt DESC, ID DESC).
type Position struct {
	CreatedAt time.Time
	ID        string
}

func Encode(p Position) string {
	raw := p.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + p.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token means the start of the list.
func Decode(token string) (*Position, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, apperr.Validation("invalid cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}
	return &Position{CreatedAt: createdAt, ID: id}, nil
}

// EncodeSeq is the token for sequence-ordered lists such as notifications.
func EncodeSeq(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte("seq:" + strconv.FormatInt(seq, 10)))
}

func DecodeSeq(token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, false, apperr.Validation("invalid cursor")
	}
	s, ok := strings.CutPrefix(string(raw), "seq:")
	if !ok {
		return 0, false, apperr.Validation("invalid cursor")
	}
	seq, err := strconv.ParseInt(s, 10, 64)
	if err != nil || seq < 0 {
		return 0, false, apperr.Validation("invalid cursor")
	}
	return seq, true, nil
}
