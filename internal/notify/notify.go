// Package notify fans operational alerts out to chat platforms.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Severity levels for alerts.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Alert is one operational event worth telling humans about: a low stock
// row, a generated maintenance activity, a failed scheduled run.
type Alert struct {
	Title    string
	Body     string
	Severity string
	Fields   []Field
	At       time.Time
}

// Field is a key-value pair rendered alongside the alert.
type Field struct {
	Name  string
	Value string
}

// Adapter is the interface platform-specific senders implement.
type Adapter interface {
	// Send delivers one alert to the platform.
	Send(ctx context.Context, alert Alert) error

	// Close releases the adapter's resources.
	Close() error
}

// Dispatcher fans alerts out to every configured adapter. Delivery is
// best-effort: a failing adapter is logged and skipped, never surfaced to
// the caller.
type Dispatcher struct {
	adapters []Adapter
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher over the given adapters.
func NewDispatcher(logger *zap.Logger, adapters ...Adapter) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{adapters: adapters, logger: logger}
}

// Dispatch sends the alert through every adapter.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) {
	if alert.At.IsZero() {
		alert.At = time.Now()
	}
	for _, a := range d.adapters {
		if err := a.Send(ctx, alert); err != nil {
			d.logger.Warn("alert delivery failed",
				zap.String("title", alert.Title),
				zap.Error(err))
		}
	}
}

// Close shuts down all adapters, returning the first error encountered.
func (d *Dispatcher) Close() error {
	var first error
	for _, a := range d.adapters {
		if err := a.Close(); err != nil && first == nil {
			first = fmt.Errorf("notify: close adapter: %w", err)
		}
	}
	return first
}

// SeverityColor maps a severity to a sidebar color hint.
func SeverityColor(severity string) string {
	switch severity {
	case SeverityWarning:
		return "#f2c744"
	case SeverityError:
		return "#d63a3a"
	default:
		return "#36a64f"
	}
}
