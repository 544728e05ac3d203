package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConnection_DialsOnceAndShares(t *testing.T) {
	t.Parallel()

	client := &mocks.MockEngineClient{}
	client.On("Close").Return().Once()

	var dials atomic.Int32

	conn := engine.NewConnection(func(context.Context) (engine.Client, error) {
		dials.Add(1)

		return client, nil
	})

	assert.False(t, conn.Connected())

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := conn.Client(t.Context())
			assert.NoError(t, err)
			assert.Same(t, client, got)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), dials.Load())
	assert.True(t, conn.Connected())

	conn.Close()
	conn.Close()

	assert.False(t, conn.Connected())
	client.AssertExpectations(t)
}

func TestConnection_DialFailureIsUnavailableAndRetried(t *testing.T) {
	t.Parallel()

	client := &mocks.MockEngineClient{}
	attempts := 0

	conn := engine.NewConnection(func(context.Context) (engine.Client, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}

		return client, nil
	})

	_, err := conn.Client(t.Context())
	require.Error(t, err)
	assert.Equal(t, engine.KindUnavailable, engine.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")

	got, err := conn.Client(t.Context())
	require.NoError(t, err)
	assert.Same(t, client, got)
}

func TestConnection_ClientAfterClose(t *testing.T) {
	t.Parallel()

	conn := engine.NewConnection(func(context.Context) (engine.Client, error) {
		t.Fatal("dial must not be called after close")

		return nil, nil
	})

	conn.Close()

	_, err := conn.Client(t.Context())
	require.ErrorIs(t, err, engine.ErrConnectionClosed)
	assert.Equal(t, engine.KindUnavailable, engine.KindOf(err))
}

func TestConnection_CheckHealth(t *testing.T) {
	t.Parallel()

	client := &mocks.MockEngineClient{}
	client.On("CheckHealth", mock.Anything).Return(nil).Once()

	conn := engine.NewConnection(func(context.Context) (engine.Client, error) {
		return client, nil
	})

	require.NoError(t, conn.CheckHealth(t.Context()))
	client.AssertExpectations(t)
}

func TestConnection_WaitersHonourTheirDeadlineDuringSlowDial(t *testing.T) {
	t.Parallel()

	client := &mocks.MockEngineClient{}
	release := make(chan struct{})
	dialing := make(chan struct{})

	conn := engine.NewConnection(func(context.Context) (engine.Client, error) {
		close(dialing)
		<-release

		return client, nil
	})

	first := make(chan error, 1)

	go func() {
		_, err := conn.Client(t.Context())
		first <- err
	}()

	<-dialing

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := conn.Client(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, engine.KindUnavailable, engine.KindOf(err))
	assert.Less(t, time.Since(started), 2*time.Second)

	close(release)
	require.NoError(t, <-first)

	got, err := conn.Client(t.Context())
	require.NoError(t, err)
	assert.Same(t, client, got)
}
