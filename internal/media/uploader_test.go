package media_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobosky/hobosky-go/internal/media"
	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/xrpc"
	"github.com/hobosky/hobosky-go/internal/xrpctest"
)

type staticIdentity struct{ did string }

func (s staticIdentity) DID() string { return s.did }

func newUploader(t *testing.T) (*media.Uploader, *xrpctest.Server) {
	t.Helper()
	server := xrpctest.New(t)
	client := xrpc.NewClient(server.URL)
	u := media.NewUploader(client, staticIdentity{did: "did:plc:alice"})
	u.SetPolling(time.Millisecond, 120)
	return u, server
}

func allowUploads(server *xrpctest.Server) {
	server.Handle("app.bsky.video.getUploadLimits", func(w http.ResponseWriter, r *http.Request) {
		xrpctest.WriteJSON(w, http.StatusOK, model.VideoUploadLimits{CanUpload: true})
	})
}

func acceptUpload(server *xrpctest.Server, jobID string) {
	server.Handle("app.bsky.video.uploadVideo", func(w http.ResponseWriter, r *http.Request) {
		xrpctest.WriteJSON(w, http.StatusOK, map[string]string{"jobId": jobID})
	})
}

func TestUploadBlob(t *testing.T) {
	t.Run("uploads raw bytes and returns the content reference", func(t *testing.T) {
		u, server := newUploader(t)

		var contentType string
		var payload []byte
		server.Handle("com.atproto.repo.uploadBlob", func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			payload, _ = io.ReadAll(r.Body)
			xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
				"blob": model.BlobRef{
					Type:     "blob",
					Ref:      model.BlobCID{Link: "bafyimage"},
					MimeType: "image/png",
					Size:     3,
				},
			})
		})

		blob, err := u.UploadBlob(context.Background(), []byte{1, 2, 3}, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "bafyimage", blob.Ref.Link)
		assert.Equal(t, "image/png", contentType)
		assert.Equal(t, []byte{1, 2, 3}, payload)
	})
}

func TestUploadVideo(t *testing.T) {
	t.Run("oversize file fails before any network call", func(t *testing.T) {
		u, server := newUploader(t)

		data := make([]byte, media.MaxVideoSize+1)
		_, err := u.UploadVideo(context.Background(), data, "video/mp4", nil)

		var quota *xrpc.QuotaError
		require.ErrorAs(t, err, &quota)
		assert.Zero(t, server.Calls("app.bsky.video.getUploadLimits"))
		assert.Zero(t, server.Calls("app.bsky.video.uploadVideo"))
	})

	t.Run("upload-limit denial carries the server message and skips the upload", func(t *testing.T) {
		u, server := newUploader(t)
		server.Handle("app.bsky.video.getUploadLimits", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "did:web:video.bsky.app#video_bsky_appview", r.Header.Get("atproto-proxy"))
			xrpctest.WriteJSON(w, http.StatusOK, model.VideoUploadLimits{
				CanUpload: false,
				Message:   "Daily video allowance exceeded",
			})
		})

		_, err := u.UploadVideo(context.Background(), []byte("tiny"), "video/mp4", nil)

		var quota *xrpc.QuotaError
		require.ErrorAs(t, err, &quota)
		assert.Equal(t, "Daily video allowance exceeded", quota.Message)
		assert.Zero(t, server.Calls("app.bsky.video.uploadVideo"))
	})

	t.Run("completes after polling and maps progress into the upper half", func(t *testing.T) {
		u, server := newUploader(t)
		allowUploads(server)
		acceptUpload(server, "job-1")

		var polls atomic.Int32
		server.Handle("app.bsky.video.getJobStatus", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "job-1", r.URL.Query().Get("jobId"))
			switch polls.Add(1) {
			case 1:
				xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
					"jobStatus": model.VideoJobStatus{JobID: "job-1", State: model.VideoJobProcessing, Progress: 0.4},
				})
			default:
				xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
					"jobStatus": model.VideoJobStatus{
						JobID: "job-1",
						State: model.VideoJobCompleted,
						Blob: &model.BlobRef{
							Type:     "blob",
							Ref:      model.BlobCID{Link: "bafyvideo"},
							MimeType: "video/mp4",
							Size:     4,
						},
					},
				})
			}
		})

		var progress []float64
		blob, err := u.UploadVideo(context.Background(), []byte("data"), "video/mp4", func(state media.State, p float64) {
			progress = append(progress, p)
		})

		require.NoError(t, err)
		assert.Equal(t, "bafyvideo", blob.Ref.Link)

		// Visible progress never regresses and ends at completion.
		for i := 1; i < len(progress); i++ {
			assert.GreaterOrEqual(t, progress[i], progress[i-1])
		}
		assert.InDelta(t, 0.7, progress[len(progress)-2], 0.0001)
		assert.Equal(t, 1.0, progress[len(progress)-1])
	})

	t.Run("failure on the first poll stops polling and carries the server text", func(t *testing.T) {
		u, server := newUploader(t)
		allowUploads(server)
		acceptUpload(server, "job-2")
		server.Handle("app.bsky.video.getJobStatus", func(w http.ResponseWriter, r *http.Request) {
			xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
				"jobStatus": model.VideoJobStatus{JobID: "job-2", State: model.VideoJobFailed, Error: "unsupported codec"},
			})
		})

		_, err := u.UploadVideo(context.Background(), []byte("data"), "video/mp4", nil)

		var pe *xrpc.ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "unsupported codec", pe.Message)
		assert.Equal(t, 1, server.Calls("app.bsky.video.getJobStatus"))
	})

	t.Run("exceeding the attempt bound times out", func(t *testing.T) {
		u, server := newUploader(t)
		u.SetPolling(time.Millisecond, 3)
		allowUploads(server)
		acceptUpload(server, "job-3")
		server.Handle("app.bsky.video.getJobStatus", func(w http.ResponseWriter, r *http.Request) {
			xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
				"jobStatus": model.VideoJobStatus{JobID: "job-3", State: model.VideoJobProcessing, Progress: 0.1},
			})
		})

		_, err := u.UploadVideo(context.Background(), []byte("data"), "video/mp4", nil)

		var timeout *xrpc.TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, 3, server.Calls("app.bsky.video.getJobStatus"))
	})

	t.Run("cancellation stops the poll loop", func(t *testing.T) {
		u, server := newUploader(t)
		u.SetPolling(50*time.Millisecond, 120)
		allowUploads(server)
		acceptUpload(server, "job-4")
		server.Handle("app.bsky.video.getJobStatus", func(w http.ResponseWriter, r *http.Request) {
			xrpctest.WriteJSON(w, http.StatusOK, map[string]any{
				"jobStatus": model.VideoJobStatus{JobID: "job-4", State: model.VideoJobProcessing, Progress: 0.1},
			})
		})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := u.UploadVideo(ctx, []byte("data"), "video/mp4", nil)
		require.Error(t, err)
	})
}
