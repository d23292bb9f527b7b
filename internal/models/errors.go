package models

import (
	"errors"
)

// Fatal pipeline failures. Each one aborts the whole run; there are no
// retries. The worker maps any of them to the terminal Error record.
var (
	ErrVolumeLoad         = errors.New("volume could not be loaded")
	ErrEmptyMesh          = errors.New("no mesh could be created, check threshold")
	ErrInsufficientSlices = errors.New("fewer than 2 slices along the stacking axis")
)
