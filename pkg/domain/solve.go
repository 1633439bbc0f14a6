package domain

import "time"

type SolveRequest struct {
	SystemPrompt string
	UserText     string
	ModelID      string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
}

type FailureReason string

const (
	FailureNetwork     FailureReason = "network"
	FailureBadStatus   FailureReason = "bad_status"
	FailureUnparseable FailureReason = "unparseable"
	FailureTimeout     FailureReason = "timeout"
)

// SolveResult is either a solved answer or a failure reason, never both.
type SolveResult struct {
	answer string
	reason FailureReason
}

func Solved(answer string) SolveResult {
	return SolveResult{answer: answer}
}

func Failed(reason FailureReason) SolveResult {
	return SolveResult{reason: reason}
}

func (r SolveResult) OK() bool { return r.reason == "" }

func (r SolveResult) Answer() string { return r.answer }

func (r SolveResult) Reason() FailureReason { return r.reason }

// Err maps a failed result onto the error taxonomy. It returns nil for a solved result.
func (r SolveResult) Err() error {
	switch r.reason {
	case "":
		return nil
	case FailureNetwork:
		return ErrSolverNetwork
	case FailureBadStatus:
		return ErrSolverBadStatus
	case FailureUnparseable:
		return ErrSolverUnparseable
	case FailureTimeout:
		return ErrSolverTimeout
	default:
		return ErrUnexpected
	}
}
