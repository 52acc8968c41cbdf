package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (e Engine) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, e.toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, e.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (e Engine) logOperation(ctx context.Context, action string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level if a logger is configured.
func (e Engine) logWarn(ctx context.Context, message string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, message, args...)
		return
	}

	if e.logger != nil {
		e.logger.Warn(message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (e Engine) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (e Engine) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordOperationDuration records an operation duration metric if a collector is configured.
func (e Engine) recordOperationDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := e.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// incrementCounter increments a counter metric if a collector is configured.
func (e Engine) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
	} else {
		e.metricsCollector.IncrementCounter(metric, labels)
	}
}

// recordErrorMetrics records a database error counter if a collector is configured.
func (e Engine) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	e.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	})
}

// startSpan opens a tracing span for an operation if a tracing collector is configured.
func (e Engine) startSpan(ctx context.Context, operation string) (context.Context, circulation.SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
	})
}

// finishSpan closes a tracing span with the outcome status if one was started.
func (e Engine) finishSpan(span circulation.SpanContext, err error) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	if err != nil {
		e.tracingCollector.FinishSpan(span, statusError, map[string]string{
			spanAttrErrorType: circulation.Classify(err).String(),
		})
		return
	}

	e.tracingCollector.FinishSpan(span, statusSuccess, nil)
}
