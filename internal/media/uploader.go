// Package media uploads blobs and drives the asynchronous video-processing
// job to completion.
package media

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/xrpc"
)

const (
	nsidUploadBlob      = "com.atproto.repo.uploadBlob"
	nsidGetUploadLimits = "app.bsky.video.getUploadLimits"
	nsidUploadVideo     = "app.bsky.video.uploadVideo"
	nsidGetJobStatus    = "app.bsky.video.getJobStatus"

	// The video backend is a delegated sub-service reached through the
	// atproto-proxy header, not a separate base endpoint.
	videoServiceProxy = "did:web:video.bsky.app#video_bsky_appview"

	MaxVideoSize = 50 << 20
)

// State is the client-visible phase of an upload.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimedOut   State = "timedOut"
)

// ProgressFunc observes pipeline state transitions. Progress is in [0,1] and
// never regresses: the upload phase covers the first half of the scale,
// server-side processing the second half.
type ProgressFunc func(state State, progress float64)

type identity interface {
	DID() string
}

type Uploader struct {
	client   *xrpc.Client
	who      identity
	interval time.Duration
	attempts int
}

func NewUploader(client *xrpc.Client, who identity) *Uploader {
	return &Uploader{
		client:   client,
		who:      who,
		interval: time.Second,
		attempts: 120,
	}
}

// SetPolling overrides the job poll cadence and attempt bound.
func (u *Uploader) SetPolling(interval time.Duration, attempts int) {
	u.interval = interval
	u.attempts = attempts
}

// UploadBlob uploads raw bytes with the declared MIME type and returns the
// content reference synchronously; images need no processing job.
func (u *Uploader) UploadBlob(ctx context.Context, data []byte, mimeType string) (*model.BlobRef, error) {
	var res struct {
		Blob model.BlobRef `json:"blob"`
	}
	err := u.client.Do(ctx, xrpc.Request{
		Method:      http.MethodPost,
		NSID:        nsidUploadBlob,
		RawBody:     data,
		ContentType: mimeType,
	}, &res)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("mimeType", mimeType).Int64("size", res.Blob.Size).Msg("blob uploaded")
	return &res.Blob, nil
}

// UploadVideo runs the full pipeline: eligibility check, raw upload, then a
// bounded poll of the processing job. The returned reference embeds the
// processed video. Terminal failures: *xrpc.QuotaError before any upload,
// *xrpc.ProtocolError with the server's error text when processing fails, and
// *xrpc.TimeoutError when the attempt bound is exceeded. Abandonment is just
// cancelling ctx; there is no server-side cancellation call.
func (u *Uploader) UploadVideo(ctx context.Context, data []byte, mimeType string, onProgress ProgressFunc) (*model.BlobRef, error) {
	report := func(state State, progress float64) {
		if onProgress != nil {
			onProgress(state, progress)
		}
	}

	if int64(len(data)) > MaxVideoSize {
		return nil, &xrpc.QuotaError{Message: "video must be under 50MB"}
	}

	report(StateUploading, 0)

	var limits model.VideoUploadLimits
	err := u.client.Do(ctx, xrpc.Request{
		Method: http.MethodGet,
		NSID:   nsidGetUploadLimits,
		Proxy:  videoServiceProxy,
	}, &limits)
	if err != nil {
		return nil, err
	}
	if !limits.CanUpload {
		msg := limits.Message
		if msg == "" {
			msg = "video upload limit reached"
		}
		return nil, &xrpc.QuotaError{Message: msg}
	}

	report(StateUploading, 0.1)

	name := uuid.NewString() + ".mp4"
	var submitted struct {
		JobID string `json:"jobId"`
	}
	err = u.client.Do(ctx, xrpc.Request{
		Method: http.MethodPost,
		NSID:   nsidUploadVideo,
		Params: url.Values{
			"did":  {u.who.DID()},
			"name": {name},
		},
		RawBody:     data,
		ContentType: mimeType,
		Proxy:       videoServiceProxy,
	}, &submitted)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("jobId", submitted.JobID).Int("size", len(data)).Msg("video submitted")
	report(StateQueued, 0.5)

	return u.pollJob(ctx, submitted.JobID, report)
}

// pollJob is the async state machine around getJobStatus: fixed interval, a
// bounded attempt count, and progress mapped into the second half of the
// scale, capped below completion so the bar never reaches 100% early.
func (u *Uploader) pollJob(ctx context.Context, jobID string, report ProgressFunc) (*model.BlobRef, error) {
	limiter := rate.NewLimiter(rate.Every(u.interval), 1)

	last := 0.5
	for attempt := 0; attempt < u.attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, &xrpc.NetworkError{Err: err}
		}

		var res struct {
			JobStatus model.VideoJobStatus `json:"jobStatus"`
		}
		err := u.client.Do(ctx, xrpc.Request{
			Method: http.MethodGet,
			NSID:   nsidGetJobStatus,
			Params: url.Values{"jobId": {jobID}},
			Proxy:  videoServiceProxy,
		}, &res)
		if err != nil {
			return nil, err
		}

		status := res.JobStatus
		switch status.State {
		case model.VideoJobCompleted:
			if status.Blob != nil {
				report(StateCompleted, 1)
				log.Debug().Str("jobId", jobID).Msg("video processing completed")
				return status.Blob, nil
			}
		case model.VideoJobFailed:
			msg := status.Error
			if msg == "" {
				msg = "video processing failed"
			}
			report(StateFailed, last)
			return nil, &xrpc.ProtocolError{Code: "VideoProcessingFailed", Message: msg}
		}

		progress := 0.5 + status.Progress*0.5
		if progress > 0.95 {
			progress = 0.95
		}
		if progress < last {
			progress = last
		}
		last = progress
		report(StateProcessing, progress)
	}

	report(StateTimedOut, last)
	return nil, &xrpc.TimeoutError{Message: "video processing timed out"}
}
