package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	warningPreamble = "One or more file systems that I am monitoring are almost full 😱!"
	warningClosing  = "People, please clean up your files!"
)

// Poster delivers a chat message to a destination
type Poster interface {
	PostMessage(ctx context.Context, destination models.ChannelDestination, text string) error
}

// DeliveryError reports a message that could not be posted
type DeliveryError struct {
	Destination models.ChannelDestination
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver message to %s: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AlertDispatcher composes disk warnings into one message and posts it
type AlertDispatcher struct {
	poster     Poster
	maintainer string
	timeout    time.Duration
	telemetry  *Telemetry
	logger     *zap.Logger
}

// NewAlertDispatcher creates a dispatcher. A zero timeout disables the delivery deadline.
func NewAlertDispatcher(poster Poster, maintainer string, timeout time.Duration, telemetry *Telemetry, logger *zap.Logger) *AlertDispatcher {
	return &AlertDispatcher{
		poster:     poster,
		maintainer: maintainer,
		timeout:    timeout,
		telemetry:  telemetry,
		logger:     logger,
	}
}

// ComposeWarningMessage returns the combined warning text, or "" when there are no warnings
func (d *AlertDispatcher) ComposeWarningMessage(warnings []models.Warning) string {
	if len(warnings) == 0 {
		return ""
	}

	lines := make([]string, 0, len(warnings)+3)
	lines = append(lines, warningPreamble)
	for _, w := range warnings {
		line, err := FormatUsage(w.Sample, w.MountPoint)
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}
	lines = append(lines,
		warningClosing,
		fmt.Sprintf("_Bleep boop, I am a bot.  Contact %s for maintenance issues._", d.maintainer),
	)
	return strings.Join(lines, "\n")
}

// SendIfWarnings posts one combined message when warnings is non-empty.
// Delivery failures are logged and swallowed; the return value reports whether a message went out.
func (d *AlertDispatcher) SendIfWarnings(ctx context.Context, warnings []models.Warning, destination models.ChannelDestination) bool {
	if len(warnings) == 0 {
		return false
	}

	message := d.ComposeWarningMessage(warnings)
	if err := d.deliver(ctx, destination, message); err != nil {
		d.telemetry.alertFailed()
		d.logger.Error("Failed to deliver disk warning",
			zap.String("destination", string(destination)),
			zap.Int("warnings", len(warnings)),
			zap.Error(err))
		return false
	}

	d.telemetry.alertDelivered()
	d.logger.Info("Disk warning delivered",
		zap.String("destination", string(destination)),
		zap.Int("warnings", len(warnings)))
	return true
}

func (d *AlertDispatcher) deliver(ctx context.Context, destination models.ChannelDestination, message string) error {
	if destination == "" {
		return &DeliveryError{Destination: destination, Err: errors.New("no destination configured")}
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.poster.PostMessage(ctx, destination, message); err != nil {
		return &DeliveryError{Destination: destination, Err: err}
	}
	return nil
}
