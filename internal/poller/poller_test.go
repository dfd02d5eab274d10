package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/offer-catalog-service/internal/mocks"
)

// TestPoller_RefreshesOnTick tests that each tick triggers a refresh
func TestPoller_RefreshesOnTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefresher := mocks.NewMockRefresher(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan struct{}, 3)
	mockRefresher.EXPECT().
		Refresh(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			select {
			case ticks <- struct{}{}:
			default:
			}
			return nil
		}).
		MinTimes(2)

	p := NewPoller(mockRefresher, 10*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not refresh")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

// TestPoller_KeepsRunningAfterFailure tests that a failed refresh is retried on the next tick
func TestPoller_KeepsRunningAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefresher := mocks.NewMockRefresher(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recovered := make(chan struct{})
	gomock.InOrder(
		mockRefresher.EXPECT().Refresh(gomock.Any()).Return(errors.New("feed down")),
		mockRefresher.EXPECT().Refresh(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
			close(recovered)
			return nil
		}),
		mockRefresher.EXPECT().Refresh(gomock.Any()).Return(nil).AnyTimes(),
	)

	p := NewPoller(mockRefresher, 10*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("poller stopped after a failed refresh")
	}

	cancel()
	<-done
}

// TestPoller_StopsBeforeFirstTick tests that canceling early performs no refresh
func TestPoller_StopsBeforeFirstTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRefresher := mocks.NewMockRefresher(ctrl)
	mockRefresher.EXPECT().Refresh(gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(mockRefresher, time.Hour, zerolog.Nop())
	p.Run(ctx)

	assert.NotNil(t, p)
}
