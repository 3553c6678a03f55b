package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A burst of strip updates must collapse into a single settings save.
func TestDebounceCoalescesUpdateBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, saves := Debounce(ctx, time.Millisecond*25)

	const burst = 8
	for i := 0; i < burst; i++ {
		updates <- i
		time.Sleep(time.Millisecond * 2)
	}

	select {
	case ev := <-saves:
		require.EqualValues(t, burst, ev.Counter)
		// the payload is the last update of the burst
		require.Equal(t, burst-1, ev.Data.(int))
	case <-time.After(time.Second):
		t.Fatal("no save event after the burst settled")
	}

	// quiet input, no further events
	select {
	case ev := <-saves:
		t.Fatalf("unexpected save event: %+v", ev)
	case <-time.After(time.Millisecond * 100):
	}
}

// Two bursts separated by more than the wait produce two saves.
func TestDebounceSeparateBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, saves := Debounce(ctx, time.Millisecond*10)

	updates <- "length"
	select {
	case ev := <-saves:
		require.Equal(t, "length", ev.Data.(string))
	case <-time.After(time.Second):
		t.Fatal("first burst never flushed")
	}

	updates <- "mode"
	select {
	case ev := <-saves:
		require.Equal(t, "mode", ev.Data.(string))
	case <-time.After(time.Second):
		t.Fatal("second burst never flushed")
	}
}

// Cancellation stops the goroutine; a pending event is simply dropped.
func TestDebounceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	updates, saves := Debounce(ctx, time.Millisecond*10)
	updates <- "doomed"
	cancel()

	select {
	case ev, ok := <-saves:
		if ok {
			// the flush may have won the race with the cancel; that is fine
			require.Equal(t, "doomed", ev.Data.(string))
		}
	case <-time.After(time.Millisecond * 100):
	}
}
