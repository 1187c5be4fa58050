package tasks

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/a3tai/docindex/internal/errors"
)

// Ensure LoggingProcessor implements Processor.
var _ Processor = (*LoggingProcessor)(nil)

// LoggingProcessor wraps a Processor with structured logging of every task.
type LoggingProcessor struct {
	next   Processor
	logger *slog.Logger
}

// NewLoggingProcessor creates a new LoggingProcessor.
func NewLoggingProcessor(next Processor, logger *slog.Logger) *LoggingProcessor {
	return &LoggingProcessor{next: next, logger: logger}
}

// GenerateRegex logs the derivation and delegates to the wrapped processor.
func (p *LoggingProcessor) GenerateRegex(ctx context.Context, sample string) (string, error) {
	begin := time.Now()
	regex, err := p.next.GenerateRegex(ctx, sample)
	p.log(ctx, "generate regex", err,
		"sample", sample,
		"duration", time.Since(begin),
	)
	return regex, err
}

// Process logs the task run and delegates to the wrapped processor.
func (p *LoggingProcessor) Process(ctx context.Context, id TaskID, in Input) ([]byte, error) {
	begin := time.Now()

	var inputBytes int
	for _, data := range in.Files {
		inputBytes += len(data)
	}

	out, err := p.next.Process(ctx, id, in)
	p.log(ctx, "process task", err,
		"task", string(id),
		"input_bytes", inputBytes,
		"output_bytes", len(out),
		"duration", time.Since(begin),
	)
	return out, err
}

func (p *LoggingProcessor) log(ctx context.Context, msg string, err error, args ...any) {
	switch {
	case err == nil:
		p.logger.InfoContext(ctx, msg, args...)
	case apperrors.IsClientError(err):
		args = append(args, "error_type", apperrors.TypeOf(err).String(), "error", err)
		p.logger.InfoContext(ctx, msg, args...)
	default:
		args = append(args, "error", err)
		p.logger.ErrorContext(ctx, msg, args...)
	}
}
