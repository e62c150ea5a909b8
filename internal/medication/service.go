package medication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// ScheduleStore persists schedules. GetSchedule returns (nil, nil) when the
// schedule does not exist or belongs to another user.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, userID, id string) (*Schedule, error)
	ListSchedules(ctx context.Context, userID string) ([]*Schedule, error)
	UpdateSchedule(ctx context.Context, s *Schedule) error
	// DeleteSchedule removes the schedule and its adherence records together.
	DeleteSchedule(ctx context.Context, userID, id string) (bool, error)
}

// Service is the owner-scoped CRUD boundary for schedules.
type Service struct {
	store      ScheduleStore
	logger     *zap.Logger
	now        func() time.Time
	chatFormat ChatFormat
}

type ServiceOption func(*Service)

// WithChatFormat makes chat contacts follow the given backend's ID format.
func WithChatFormat(f ChatFormat) ServiceOption {
	return func(s *Service) { s.chatFormat = f }
}

func NewService(store ScheduleStore, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: logger.Named("schedules"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) checkContact(sched *Schedule) error {
	if sched.Channel != ChannelChat {
		return nil
	}
	return ValidateChatID(s.chatFormat, sched.Contact)
}

func (s *Service) Create(ctx context.Context, userID string, req CreateScheduleRequest) (*Schedule, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Validation("user id is required")
	}
	sched, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkContact(sched); err != nil {
		return nil, err
	}

	now := s.now()
	sched.ID = uuid.New().String()
	sched.UserID = userID
	sched.CreatedAt = now
	sched.UpdatedAt = now

	if err := s.store.CreateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.logger.Info("Schedule created",
		zap.String("user_id", userID),
		zap.String("schedule_id", sched.ID),
		zap.Strings("times", sched.TimeStrings()),
		zap.String("channel", string(sched.Channel)),
	)
	return sched, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Schedule, error) {
	sched, err := s.store.GetSchedule(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if sched == nil {
		return nil, apperrors.NotFound("schedule")
	}
	return sched, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Schedule, error) {
	scheds, err := s.store.ListSchedules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return scheds, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, req UpdateScheduleRequest) (*Schedule, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next, err := req.ApplyTo(current)
	if err != nil {
		return nil, err
	}
	if err := s.checkContact(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	if err := s.store.UpdateSchedule(ctx, next); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	s.logger.Info("Schedule updated",
		zap.String("user_id", userID),
		zap.String("schedule_id", id),
	)
	return next, nil
}

// Delete removes the schedule and every adherence record referencing it.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	found, err := s.store.DeleteSchedule(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if !found {
		return apperrors.NotFound("schedule")
	}

	s.logger.Info("Schedule deleted",
		zap.String("user_id", userID),
		zap.String("schedule_id", id),
	)
	return nil
}
