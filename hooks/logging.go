package hooks

import (
	"context"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register adds every logging hook to r.
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeOperation(h.BeforeOperation)
	r.OnAfterOperation(h.AfterOperation)
	r.OnSelectionChanged(h.SelectionChanged)
	r.OnNotify(h.Notify)
}

// BeforeOperation logs the start of an operation
func (h *LoggingHooks) BeforeOperation(ctx context.Context, conversationID uuid.UUID, op compaction.Operation) error {
	h.logger.Printf("[InlineSummary] Starting %s in conversation %s", op, conversationID)
	return nil
}

// AfterOperation logs a completed operation
func (h *LoggingHooks) AfterOperation(ctx context.Context, event *compaction.Event) error {
	if event.GenerationFailed {
		h.logger.Printf("[InlineSummary] %s at #%d finished with a failed generation (%d archived, %v)",
			event.Operation, event.Index, event.Archived, event.Duration)
		return nil
	}
	h.logger.Printf("[InlineSummary] %s at #%d complete: %d archived, %d prompt tokens, %v",
		event.Operation, event.Index, event.Archived, event.PromptTokens, event.Duration)
	return nil
}

// SelectionChanged logs the new selection bounds
func (h *LoggingHooks) SelectionChanged(conversationID uuid.UUID, sel types.Selection) {
	h.logger.Printf("[InlineSummary] Selection in %s: start=%s end=%s",
		conversationID, bound(sel.Start), bound(sel.End))
}

// Notify logs a notification
func (h *LoggingHooks) Notify(ctx context.Context, n Notification) {
	if n.Err != nil {
		h.logger.Printf("[InlineSummary][%s] %s: %v", n.Level, n.Message, n.Err)
		return
	}
	h.logger.Printf("[InlineSummary][%s] %s", n.Level, n.Message)
}

func bound(i *int) string {
	if i == nil {
		return "-"
	}
	return strconv.Itoa(*i)
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// AfterOperation records operation metrics
func (h *MetricsHooks) AfterOperation(ctx context.Context, event *compaction.Event) error {
	tags := map[string]string{"operation": string(event.Operation)}

	h.OnMetric("inlinesummary.operation.count", 1, tags)
	h.OnMetric("inlinesummary.operation.duration_ms", float64(event.Duration.Milliseconds()), tags)
	if event.PromptTokens > 0 {
		h.OnMetric("inlinesummary.prompt.tokens", float64(event.PromptTokens), tags)
	}
	if event.GenerationFailed {
		h.OnMetric("inlinesummary.generation.error", 1, tags)
	}

	return nil
}

// Notify counts notifications by level
func (h *MetricsHooks) Notify(ctx context.Context, n Notification) {
	h.OnMetric("inlinesummary.notification", 1, map[string]string{"level": string(n.Level)})
}
