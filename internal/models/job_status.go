package models

/*
Step labels written to the progress KV, and the percentage each pipeline
stage reports. Centralizing these avoids magic strings and keeps the polled
labels stable for the frontend.
*/

// Step labels
const (
	StepPending     = "Pending"
	StepUploading   = "Uploading"
	StepPreprocess  = "Preprocessing NIfTI"
	StepCheckOrient = "Checking orientation"
	StepFixOrient   = "Fixing orientation"
	StepOrientOK    = "Orientation already correct"
	StepToDicom     = "Converting to DICOM"
	StepLoadDicom   = "Loading DICOM volume"
	StepGenMesh     = "Generating mesh"
	StepSmoothMesh  = "Smoothing mesh"
	StepSaveSTL     = "Saving STL"
	StepCompleted   = "Completed"
	StepError       = "Error"
)

// Percent reported at the start of each stage. The schedule is fixed; it is
// not computed from data size.
const (
	PercentPreprocess  = 10
	PercentCheckOrient = 20
	PercentOrient      = 30
	PercentToDicom     = 40
	PercentLoadDicom   = 50
	PercentGenMesh     = 60
	PercentSmoothMesh  = 75
	PercentSaveSTL     = 90
	PercentCompleted   = 100
)
