package domain

import "errors"

var ErrNotFound = errors.New("not found")

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInputTooLong      = errors.New("input too long")
	ErrOCRUnavailable    = errors.New("no text recognized")
	ErrSolverNetwork     = errors.New("solver network error")
	ErrSolverBadStatus   = errors.New("solver bad status")
	ErrSolverUnparseable = errors.New("solver response unparseable")
	ErrSolverTimeout     = errors.New("solver timeout")
	ErrPersistence       = errors.New("persistence error")
	ErrUnexpected        = errors.New("unexpected error")
)
