package main

import (
	"errors"

	"feedsync/internal/domain"
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

// Exit codes.
const (
	exitFailure         = 1
	exitUsage           = 2
	exitUnauthenticated = 3
	exitUnavailable     = 4
)

// exitFor maps an error onto the process exit code.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		return err
	}
	code := exitFailure
	if c, ok := domain.CodeFrom(err); ok {
		switch c {
		case domain.CodeInvalidArgument:
			code = exitUsage
		case domain.CodeUnauthenticated:
			code = exitUnauthenticated
		case domain.CodeUnavailable, domain.CodeDeadlineExceeded:
			code = exitUnavailable
		}
	}
	return exitError{code: code, message: err.Error()}
}
