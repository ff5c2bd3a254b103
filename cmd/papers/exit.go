package main

import (
	"paper-hub/services"
)

// Exit-Codes der CLI.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitConflict   = 3
	exitStore      = 4
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch services.KindOf(err) {
	case services.FailureValidation:
		return exitValidation
	case services.FailureConflict:
		return exitConflict
	case services.FailureStore:
		return exitStore
	default:
		return exitFailure
	}
}
