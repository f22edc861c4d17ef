package database

import (
	"errors"
	"fmt"
	"testing"

	"fanclub/pkg/apperr"
	"fanclub/pkg/config"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.Nil(t, Translate(nil, "tier"))

	err := Translate(gorm.ErrRecordNotFound, "tier")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "tier not found", apperr.MessageOf(err))

	err = Translate(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), "tier level")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	err = Translate(gorm.ErrDuplicatedKey, "like")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, Translate(plain, "tier"))
}

func TestDSN(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=fanclub sslmode=disable", DSN(cfg))
}

func testConfig() *config.Config {
	return &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "fanclub",
		DBSSLMode:  "disable",
	}
}
