//go:build !windows

package dataset

func isSharingViolation(error) bool { return false }
