package redis

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_UnreachableIsTransient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	l := NewLock(addr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	release, ok, err := l.Acquire(ctx, "seed", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.False(t, ok)
	assert.Nil(t, release)
	assert.Error(t, l.CheckReadiness(ctx))
}
