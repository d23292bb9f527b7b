package tasks

// Defines constants for task types and queues used in Asynq.

const (
	// TypeConvertJob runs the NIfTI-to-STL pipeline for one uploaded file.
	TypeConvertJob = "pipeline:convert"
	// TypeBlobUpload copies the raw upload to cold storage, best effort.
	TypeBlobUpload = "blob:upload"
)

const (
	QueueConvert = "convert"
	QueueUploads = "uploads"
)
