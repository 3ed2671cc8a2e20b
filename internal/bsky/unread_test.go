package bsky_test

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobosky/hobosky-go/internal/bsky"
	"github.com/hobosky/hobosky-go/internal/xrpctest"
)

func TestUnreadPoller(t *testing.T) {
	t.Run("delivers counts and polls again on the interval", func(t *testing.T) {
		api, server := newAPI(t)
		server.Handle("app.bsky.notification.getUnreadCount", func(w http.ResponseWriter, r *http.Request) {
			xrpctest.WriteJSON(w, http.StatusOK, map[string]int64{"count": 3})
		})

		counts := make(chan int64, 16)
		poller := bsky.NewUnreadPoller(api, 5*time.Millisecond, func(n int64) {
			counts <- n
		})
		poller.Start()
		defer poller.Stop()

		for i := 0; i < 2; i++ {
			select {
			case n := <-counts:
				assert.Equal(t, int64(3), n)
			case <-time.After(time.Second):
				t.Fatal("no unread count delivered")
			}
		}
	})

	t.Run("fetch failures are swallowed and polling continues", func(t *testing.T) {
		api, server := newAPI(t)
		var calls atomic.Int64
		server.Handle("app.bsky.notification.getUnreadCount", func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				xrpctest.WriteError(w, http.StatusInternalServerError, "InternalServerError", "boom")
				return
			}
			xrpctest.WriteJSON(w, http.StatusOK, map[string]int64{"count": 1})
		})

		counts := make(chan int64, 16)
		poller := bsky.NewUnreadPoller(api, 5*time.Millisecond, func(n int64) {
			counts <- n
		})
		poller.Start()
		defer poller.Stop()

		select {
		case n := <-counts:
			assert.Equal(t, int64(1), n)
		case <-time.After(time.Second):
			t.Fatal("poller did not recover after a failed fetch")
		}
		require.GreaterOrEqual(t, calls.Load(), int64(2))
	})

	t.Run("stop halts polling", func(t *testing.T) {
		api, server := newAPI(t)
		server.Handle("app.bsky.notification.getUnreadCount", func(w http.ResponseWriter, r *http.Request) {
			xrpctest.WriteJSON(w, http.StatusOK, map[string]int64{"count": 0})
		})

		poller := bsky.NewUnreadPoller(api, time.Millisecond, func(int64) {})
		poller.Start()
		time.Sleep(10 * time.Millisecond)
		poller.Stop()

		settled := server.Calls("app.bsky.notification.getUnreadCount")
		time.Sleep(20 * time.Millisecond)
		assert.LessOrEqual(t, server.Calls("app.bsky.notification.getUnreadCount"), settled+1)
	})
}
