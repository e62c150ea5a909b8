package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/security"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	ScheduleID string             `json:"schedule_id"`
	UserID     string             `json:"user_id"`
	Channel    medication.Channel `json:"channel"`
	Delivered  bool               `json:"delivered"`
	Err        error              `json:"-"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// Dispatcher routes reminders to the channel a schedule selects. It keeps no
// state between calls and never returns an error to its caller.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[medication.Channel]Channel
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDispatcher(timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		channels: make(map[medication.Channel]Channel),
		timeout:  timeout,
		logger:   logger.Named("notify"),
	}
}

// Register binds a transport to a schedule channel selector.
func (d *Dispatcher) Register(kind medication.Channel, ch Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[kind] = ch
}

func (d *Dispatcher) channel(kind medication.Channel) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[kind]
	return ch, ok
}

// Notify sends the reminder for occ. Failures are logged and reported in the
// result as Transport errors.
func (d *Dispatcher) Notify(ctx context.Context, occ medication.Occurrence, s *medication.Schedule) (res Result) {
	start := time.Now()
	res = Result{ScheduleID: s.ID, UserID: s.UserID, Channel: s.Channel}

	defer func() {
		if r := recover(); r != nil {
			res.Err = apperrors.Transport(string(s.Channel), fmt.Errorf("panic: %v", r))
		}
		res.Elapsed = time.Since(start)
		res.Delivered = res.Err == nil
		metrics.RecordNotification(string(s.Channel), res.Delivered)

		if res.Err != nil {
			d.logger.Warn("Reminder delivery failed",
				zap.String("schedule_id", s.ID),
				zap.String("user_id", s.UserID),
				zap.String("channel", string(s.Channel)),
				zap.String("contact", security.MaskContact(s.Contact)),
				zap.String("date", occ.Date.String()),
				zap.String("time", occ.Time.String()),
				zap.String("error", security.RedactSecrets(res.Err.Error())),
			)
			return
		}
		d.logger.Info("Reminder sent",
			zap.String("schedule_id", s.ID),
			zap.String("channel", string(s.Channel)),
			zap.String("time", occ.Time.String()),
			zap.Duration("elapsed", res.Elapsed),
		)
	}()

	ch, ok := d.channel(s.Channel)
	if !ok {
		res.Err = apperrors.Transport(string(s.Channel), apperrors.New(apperrors.CodeConfig, "no transport configured"))
		return res
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := ch.Send(sendCtx, s.Contact, FormatReminder(s)); err != nil {
		if !apperrors.IsTransport(err) {
			err = apperrors.Transport(ch.Name(), err)
		}
		res.Err = err
	}
	return res
}
