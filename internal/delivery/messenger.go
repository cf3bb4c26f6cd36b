package delivery

import (
	"context"
	"log/slog"

	"github.com/veranemoloko/tg-downloader/internal/metrics"
)

// Messenger is the reply capability of one chat.
type Messenger interface {
	SendText(ctx context.Context, text string) (messageID int, err error)
	EditText(ctx context.Context, messageID int, text string) error
	Delete(ctx context.Context, messageID int) error
	SendVideo(ctx context.Context, path, caption string) error
	SendDocument(ctx context.Context, path, caption string) error
}

// Outcome is the result of a single delivery-channel call.
type Outcome struct {
	Op  string
	Err error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// outcome wraps a channel call result.
func outcome(op string, err error) Outcome {
	return Outcome{Op: op, Err: err}
}

// discard drops a failed best-effort outcome after logging it.
func discard(logger *slog.Logger, o Outcome, attrs ...any) {
	if o.OK() {
		return
	}
	metrics.StatusEditsFailed.Inc()
	logger.Debug("best-effort channel call failed", append([]any{"op", o.Op, "error", o.Err}, attrs...)...)
}
