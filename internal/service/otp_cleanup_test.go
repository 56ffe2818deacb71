package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOtpCleanup_SweepsUntilCancelled(t *testing.T) {
	repo := new(MockOtpRepository)
	svc := newTestOtpService(t, repo, new(MockIdentityProvider), new(MockDeliverySink))

	swept := make(chan struct{}, 8)
	repo.On("DeleteDead", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return(int64(1), nil)

	cleanup := NewOtpCleanup(svc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never fired")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestNewOtpCleanup_DefaultInterval(t *testing.T) {
	cleanup := NewOtpCleanup(nil, 0)
	require.Equal(t, 10*time.Minute, cleanup.interval)
}
