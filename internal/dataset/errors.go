package dataset

import "errors"

var (
	ErrFileLocked = errors.New("file is open in another program")
	ErrNoRemote   = errors.New("no remote library configured")
)
