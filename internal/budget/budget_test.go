package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemainingNeverIncreases(t *testing.T) {
	b := New(50 * time.Millisecond)

	previous := b.Remaining()
	for i := 0; i < 10; i++ {
		time.Sleep(time.Millisecond)
		current := b.Remaining()
		require.True(t, current <= previous, "remaining went up from %v to %v", previous, current)
		previous = current
	}
}

func TestRemainingClampsToZero(t *testing.T) {
	b := New(time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	require.Equal(t, time.Duration(0), b.Remaining())
	require.True(t, b.Expired())
}

func TestErrIfExpired(t *testing.T) {
	b := New(time.Millisecond)
	require.NoError(t, b.ErrIfExpired())

	time.Sleep(5 * time.Millisecond)
	err := b.ErrIfExpired()
	require.Error(t, err)
	require.IsType(t, TimeoutError{}, err)
}

func TestUnlimited(t *testing.T) {
	b := Unlimited()
	require.False(t, b.Limited())
	require.False(t, b.Expired())
	require.NoError(t, b.ErrIfExpired())
	require.True(t, b.Remaining() > 24*time.Hour)
}

func TestZeroValueIsUnlimited(t *testing.T) {
	var b Budget
	require.False(t, b.Limited())
	require.NoError(t, b.ErrIfExpired())
}

func TestDeriveNeverExtends(t *testing.T) {
	parent := New(20 * time.Millisecond)

	child := parent.Derive(time.Hour)
	require.True(t, child.Remaining() <= parent.limit)

	short := parent.Derive(time.Millisecond)
	require.True(t, short.Remaining() <= time.Millisecond)
}

func TestDeriveFromUnlimited(t *testing.T) {
	child := Unlimited().Derive(10 * time.Millisecond)
	require.True(t, child.Limited())
	require.True(t, child.Remaining() <= 10*time.Millisecond)
}

func TestDeriveShrinksAcrossChain(t *testing.T) {
	parent := New(30 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	child := parent.Derive(30 * time.Millisecond)
	// the child cannot outlive the parent even though it asked for the
	// original duration again
	require.True(t, child.Remaining() <= parent.Remaining()+time.Millisecond)
}

func TestContextDeadline(t *testing.T) {
	b := New(10 * time.Millisecond)
	ctx, cancel := b.Context(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, b.start.Add(b.limit), deadline, time.Millisecond)
}

func TestContextUnlimited(t *testing.T) {
	ctx, cancel := Unlimited().Context(context.Background())
	defer cancel()

	_, ok := ctx.Deadline()
	require.False(t, ok)
}
