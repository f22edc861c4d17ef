package cursor

import (
	"encoding/base64"
	"testing"
	"time"

	"fanclub/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.FixedZone("KST", 9*3600))
	token := Encode(Position{CreatedAt: at, ID: "9f1c"})

	p, err := Decode(token)
	require.NoError(t, err)
	assert.True(t, at.Equal(p.CreatedAt))
	assert.Equal(t, "9f1c", p.ID)
}

func TestDecode_Empty(t *testing.T) {
	p, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDecode_Invalid(t *testing.T) {
	for _, token := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("yesterday|abc")),
		base64.RawURLEncoding.EncodeToString([]byte("2026-03-01T00:00:00Z|")),
	} {
		_, err := Decode(token)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), token)
	}
}

func TestSeq(t *testing.T) {
	seq, ok, err := DecodeSeq(EncodeSeq(42))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), seq)

	_, ok, err = DecodeSeq("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DecodeSeq(Encode(Position{CreatedAt: time.Now(), ID: "x"}))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
