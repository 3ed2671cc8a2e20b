package model

type VideoJobState string

const (
	VideoJobCreated    VideoJobState = "JOB_STATE_CREATED"
	VideoJobProcessing VideoJobState = "JOB_STATE_PROCESSING"
	VideoJobCompleted  VideoJobState = "JOB_STATE_COMPLETED"
	VideoJobFailed     VideoJobState = "JOB_STATE_FAILED"
)

// VideoJobStatus is the processing service's view of one transcode job. It is
// mutated only by polling responses and terminal at completed or failed.
type VideoJobStatus struct {
	JobID    string        `json:"jobId"`
	DID      string        `json:"did,omitempty"`
	State    VideoJobState `json:"state"`
	Progress float64       `json:"progress,omitempty"`
	Blob     *BlobRef      `json:"blob,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type VideoUploadLimits struct {
	CanUpload            bool   `json:"canUpload"`
	RemainingDailyVideos *int64 `json:"remainingDailyVideos,omitempty"`
	RemainingDailyBytes  *int64 `json:"remainingDailyBytes,omitempty"`
	Message              string `json:"message,omitempty"`
	Error                string `json:"error,omitempty"`
}
