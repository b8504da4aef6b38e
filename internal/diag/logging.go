package diag

import (
	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/ir"
)

type loggingReporter struct {
	logger *zap.Logger
	next   Reporter
}

// WithLogger returns a Reporter that logs every report at warn level and
// forwards it to next.
func WithLogger(next Reporter, logger *zap.Logger) Reporter {
	return &loggingReporter{logger: logger, next: next}
}

func (l *loggingReporter) Report(call *ir.Call, code Code, message string) {
	l.logger.Warn("interpretation error",
		zap.String("call", call.ID),
		zap.String("callee", call.Callee),
		zap.String("code", string(code)),
		zap.String("message", message),
		zap.Bool("repeat", l.next.HasReportedError(call)),
	)
	l.next.Report(call, code, message)
}

func (l *loggingReporter) HasReportedError(call *ir.Call) bool {
	return l.next.HasReportedError(call)
}
