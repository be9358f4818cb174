package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWholeCallSucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	err := NewWholeCall(fastPolicy(), nil).Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient %d", calls)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWholeCallReturnsLastErrorAfterExhaustion(t *testing.T) {
	calls := 0
	err := NewWholeCall(fastPolicy(), nil).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return fmt.Errorf("failure %d", calls)
	})

	require.EqualError(t, err, "failure 3")
	assert.Equal(t, 3, calls)
}

func TestWholeCallDoesNotRetryCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewWholeCall(fastPolicy(), nil).Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return context.Canceled
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWholeCallStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := NewWholeCall(fastPolicy(), nil).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return Permanent(sentinel)
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestPolicyNormalized(t *testing.T) {
	p := Policy{MaxAttempts: 0, InitialDelay: 0, MaxDelay: 0}.normalized()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, p.InitialDelay)
	assert.Equal(t, DefaultInitialDelay, p.MaxDelay)

	d := DefaultPolicy()
	assert.Equal(t, 3, d.MaxAttempts)
	assert.Equal(t, 4*time.Second, d.InitialDelay)
	assert.Equal(t, 10*time.Second, d.MaxDelay)
}

func TestPolicyBackoffSchedule(t *testing.T) {
	b := DefaultPolicy().backoff()

	first, stop := b.Next()
	require.False(t, stop)
	assert.Equal(t, 4*time.Second, first)

	second, stop := b.Next()
	require.False(t, stop)
	assert.Equal(t, 8*time.Second, second)

	_, stop = b.Next()
	assert.True(t, stop)
}

func TestOnceRunsSingleAttempt(t *testing.T) {
	calls := 0
	err := Once{}.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
