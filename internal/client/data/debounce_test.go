package data

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	var calls atomic.Int64

	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Close()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	// Новых вызовов после тишины не появляется.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestDebouncer_SeparateQuietPeriodsFireSeparately(t *testing.T) {
	var calls atomic.Int64

	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	defer d.Close()

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_CloseCancelsPending(t *testing.T) {
	var calls atomic.Int64

	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Close()
	d.Trigger() // после Close игнорируется

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
