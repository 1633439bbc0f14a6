// Package pipeline drives a single homework task from receipt to the delivered answer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"github.com/dskvich/homework-solver-bot/pkg/chunker"
	"github.com/dskvich/homework-solver-bot/pkg/domain"
	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

const (
	imageRequestPrefix = "[IMAGE OCR] "
	previewLength      = 500
	// labelReserve leaves room for the continuation label in every chunk, in UTF-16 units.
	labelReserve = 32
)

type Stage string

const (
	StageReceived    Stage = "received"
	StageNormalizing Stage = "normalizing"
	StageValidating  Stage = "validating"
	StageLogging     Stage = "logging"
	StageSolving     Stage = "solving"
	StageDelivering  Stage = "delivering"
	StageDone        Stage = "done"
)

// Outcome is the terminal state of a task. Err is nil only when Stage is StageDone.
type Outcome struct {
	Stage Stage
	Err   error
}

func (o Outcome) OK() bool { return o.Err == nil }

type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type Normalizer interface {
	Normalize(ctx context.Context, data []byte) (string, bool)
}

type Solver interface {
	Solve(ctx context.Context, taskText string) domain.SolveResult
}

type Users interface {
	GetOrCreate(ctx context.Context, s domain.Submitter) (int64, error)
}

type Requests interface {
	Log(ctx context.Context, userID int64, text string) (int64, error)
	UpdateResponse(ctx context.Context, requestID int64, text string) error
}

type Limits struct {
	MaxInputLength   int
	MaxMessageLength int
}

type Orchestrator struct {
	messenger  Messenger
	normalizer Normalizer
	solver     Solver
	users      Users
	requests   Requests
	limits     Limits
}

func NewOrchestrator(
	messenger Messenger,
	normalizer Normalizer,
	solver Solver,
	users Users,
	requests Requests,
	limits Limits,
) *Orchestrator {
	return &Orchestrator{
		messenger:  messenger,
		normalizer: normalizer,
		solver:     solver,
		users:      users,
		requests:   requests,
		limits:     limits,
	}
}

// run carries the mutable state of one task through the stages.
type run struct {
	task     *domain.Task
	stage    Stage
	statusID int
}

// Handle processes the task to completion. It never panics; every failure is reported to the
// user with a fixed message and returned in the Outcome.
func (o *Orchestrator) Handle(ctx context.Context, task *domain.Task) (out Outcome) {
	r := &run{task: task, stage: StageReceived}

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "Panic while handling task",
				"stage", r.stage,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			o.notify(ctx, r, domain.GenericFailureText)
			out = Outcome{Stage: r.stage, Err: fmt.Errorf("%w: %v", domain.ErrUnexpected, rec)}
		}
	}()

	slog.InfoContext(ctx, "Handling task",
		"origin", task.Origin,
		"externalID", task.Submitter.ExternalID,
	)

	out = o.handle(ctx, r)
	if out.OK() {
		slog.InfoContext(ctx, "Task done", "origin", task.Origin)
	} else {
		slog.WarnContext(ctx, "Task failed", "stage", out.Stage, logger.Err(out.Err))
	}

	return out
}

func (o *Orchestrator) handle(ctx context.Context, r *run) Outcome {
	var requestText string

	switch r.task.Origin {
	case domain.OriginImage:
		text, err := o.recognize(ctx, r)
		if err != nil {
			return r.fail(err)
		}
		r.task.NormalizedText = text

		r.stage = StageValidating
		if n := utf8.RuneCountInString(text); n > o.limits.MaxInputLength {
			o.notify(ctx, r, domain.RecognizedTooLongText(n))
			return r.fail(domain.ErrInputTooLong)
		}
		o.notify(ctx, r, domain.RecognizedPreviewText(preview(text)))
		requestText = imageRequestPrefix + text

	default:
		text := strings.TrimSpace(r.task.Text)
		r.task.NormalizedText = text

		r.stage = StageValidating
		if text == "" {
			o.notify(ctx, r, domain.EmptyInputText)
			return r.fail(domain.ErrEmptyInput)
		}
		if utf8.RuneCountInString(text) > o.limits.MaxInputLength {
			o.notify(ctx, r, domain.InputTooLongText(o.limits.MaxInputLength))
			return r.fail(domain.ErrInputTooLong)
		}
		requestText = text
	}

	r.stage = StageLogging
	userID, err := o.users.GetOrCreate(ctx, r.task.Submitter)
	if err != nil {
		o.notify(ctx, r, domain.GenericFailureText)
		return r.fail(err)
	}
	requestID, err := o.requests.Log(ctx, userID, requestText)
	if err != nil {
		o.notify(ctx, r, domain.GenericFailureText)
		return r.fail(err)
	}
	if r.task.Origin != domain.OriginImage {
		o.setStatus(ctx, r, domain.ThinkingText)
	}

	r.stage = StageSolving
	result := o.solver.Solve(ctx, r.task.NormalizedText)
	if !result.OK() {
		o.notify(ctx, r, domain.SolverFailedText)
		return r.fail(result.Err())
	}

	r.stage = StageDelivering
	if err := o.requests.UpdateResponse(ctx, requestID, result.Answer()); err != nil {
		slog.ErrorContext(ctx, "Saving response", "requestID", requestID, logger.Err(err))
	}
	o.clearStatus(ctx, r)

	if err := o.deliver(ctx, r.task.Submitter.ChatID, result.Answer()); err != nil {
		return r.fail(err)
	}

	r.stage = StageDone
	return Outcome{Stage: StageDone}
}

func (o *Orchestrator) recognize(ctx context.Context, r *run) (string, error) {
	r.stage = StageNormalizing
	o.setStatus(ctx, r, domain.RecognizingText)

	data := r.task.Image
	if len(data) == 0 {
		var err error
		if data, err = o.messenger.DownloadFile(ctx, r.task.ImageFileID); err != nil {
			slog.ErrorContext(ctx, "Downloading image", "fileID", r.task.ImageFileID, logger.Err(err))
			o.notify(ctx, r, domain.OCRFailedText)
			return "", fmt.Errorf("%w: downloading image: %w", domain.ErrOCRUnavailable, err)
		}
		r.task.Image = data
	}

	text, ok := o.normalizer.Normalize(ctx, data)
	if !ok {
		o.notify(ctx, r, domain.OCRFailedText)
		return "", domain.ErrOCRUnavailable
	}

	slog.InfoContext(ctx, "Text recognized", "length", utf8.RuneCountInString(text))

	return text, nil
}

// deliver sends the answer in order. The first chunk goes out as is, the rest carry a
// continuation label. Chunks are measured in UTF-16 units like Telegram's message limit.
// A failed send stops delivery.
func (o *Orchestrator) deliver(ctx context.Context, chatID int64, answer string) error {
	chunks := chunker.SplitBy(answer, o.limits.MaxMessageLength-labelReserve, chunker.UTF16Len)

	for i, chunk := range chunks {
		text := chunk
		if i > 0 {
			text = domain.ContinuationLabel(i+1, len(chunks)) + chunk
		}
		if _, err := o.messenger.SendMessage(ctx, chatID, text); err != nil {
			return fmt.Errorf("sending chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	slog.InfoContext(ctx, "Answer delivered", "chunks", len(chunks))

	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, r *run, text string) {
	id, err := o.messenger.SendMessage(ctx, r.task.Submitter.ChatID, text)
	if err != nil {
		slog.ErrorContext(ctx, "Sending status message", logger.Err(err))
		return
	}
	r.statusID = id
}

// notify replaces the status message with text, or sends text when there is none.
func (o *Orchestrator) notify(ctx context.Context, r *run, text string) {
	chatID := r.task.Submitter.ChatID
	if r.statusID != 0 {
		err := o.messenger.EditMessage(ctx, chatID, r.statusID, text)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Editing status message", logger.Err(err))
	}
	if _, err := o.messenger.SendMessage(ctx, chatID, text); err != nil {
		slog.ErrorContext(ctx, "Sending message", logger.Err(err))
	}
}

func (o *Orchestrator) clearStatus(ctx context.Context, r *run) {
	if r.statusID == 0 {
		return
	}
	if err := o.messenger.DeleteMessage(ctx, r.task.Submitter.ChatID, r.statusID); err != nil {
		slog.WarnContext(ctx, "Deleting status message", logger.Err(err))
	}
	r.statusID = 0
}

func (r *run) fail(err error) Outcome {
	return Outcome{Stage: r.stage, Err: err}
}

func preview(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text, false
	}
	return string(runes[:previewLength]), true
}
