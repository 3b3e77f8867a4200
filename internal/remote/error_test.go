package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, true},
		{"bad data", &pgconn.PgError{Code: "22001"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"cancel", context.Canceled, false},
		{"plain error", errors.New("conn reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("op", tt.err)
			assert.Error(t, err)
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

func TestClassify_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Classify("op", nil))
}

func TestIsPermanent_Unwraps(t *testing.T) {
	inner := Permanent("profiles.upsert", errors.New("handle taken"))
	wrapped := errors.Join(errors.New("context"), inner)
	assert.True(t, IsPermanent(wrapped))
	assert.False(t, IsPermanent(errors.New("other")))
}

func TestError_Message(t *testing.T) {
	err := Transient("sessions.fetch", errors.New("timeout"))
	assert.Contains(t, err.Error(), "sessions.fetch")
	assert.Contains(t, err.Error(), "transient")
}
