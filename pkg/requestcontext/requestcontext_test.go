package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"certledger/pkg/domain"
)

func TestCaller(t *testing.T) {
	t.Run("anonymous context yields zero address", func(t *testing.T) {
		assert.True(t, Caller(context.Background()).IsZero())
	})

	t.Run("returns stored caller", func(t *testing.T) {
		addr := domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		ctx := WithCaller(context.Background(), addr)
		assert.Equal(t, addr, Caller(ctx))
	})
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "req-1", RequestID(WithRequestID(context.Background(), "req-1")))
}

func TestNow(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))

	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))
}
