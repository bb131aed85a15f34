package edu

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateCourseMessage is the course publication request
type CreateCourseMessage struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	InstructorID string  `json:"-"`
}

func (e CreateCourseMessage) Type() string { return "course.create" }

func (e CreateCourseMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&e.Description, validation.Required, validation.Length(10, 1000)),
		validation.Field(&e.Price, validation.Required, validation.By(positivePrice)),
		validation.Field(&e.InstructorID, validation.Required),
	)
}

func positivePrice(value any) error {
	var price float64
	switch v := value.(type) {
	case float64:
		price = v
	case *float64:
		if v == nil {
			return nil
		}
		price = *v
	default:
		return errors.New("must be a number")
	}
	if price <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// CreateCourseHandler publishes courses on behalf of instructors.
type CreateCourseHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// CourseCommandOption customizes course command handlers.
type CourseCommandOption func(*courseCommandOptions)

type courseCommandOptions struct {
	activitySink ActivitySink
	logger       Logger
}

// WithCourseActivitySink sets the sink for course events.
func WithCourseActivitySink(sink ActivitySink) CourseCommandOption {
	return func(o *courseCommandOptions) {
		o.activitySink = normalizeActivitySink(sink)
	}
}

// WithCourseLogger sets the logger.
func WithCourseLogger(logger Logger) CourseCommandOption {
	return func(o *courseCommandOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func resolveCourseOptions(name string, opts []CourseCommandOption) courseCommandOptions {
	o := courseCommandOptions{
		activitySink: noopActivitySink{},
		logger:       defLogger{name: name},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func NewCreateCourseHandler(repo RepositoryManager, opts ...CourseCommandOption) *CreateCourseHandler {
	o := resolveCourseOptions("edu.courses.create", opts)
	return &CreateCourseHandler{
		repo:         repo,
		activitySink: o.activitySink,
		logger:       o.logger,
		now:          time.Now,
	}
}

func (h *CreateCourseHandler) Execute(ctx context.Context, event CreateCourseMessage) error {
	_, err := h.Create(ctx, event)
	return err
}

// Create stores a new course owned by event.InstructorID. The instructor
// is re-read from the store so a deleted or demoted account can not
// publish with a still valid token.
func (h *CreateCourseHandler) Create(ctx context.Context, event CreateCourseMessage) (*Course, error) {
	if err := event.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	instructorID, err := uuid.Parse(strings.TrimSpace(event.InstructorID))
	if err != nil {
		return nil, ErrUserNotFound
	}

	var course *Course
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		instructor, err := h.repo.Users().GetByIDTx(ctx, tx, instructorID.String())
		if err != nil {
			if IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return NewDownstreamError(err, "could not look up instructor")
		}

		if !instructor.Role.CanPublishCourses() {
			return ErrForbidden
		}

		created, err := h.repo.Courses().CreateTx(ctx, tx, &Course{
			Title:        strings.TrimSpace(event.Title),
			Description:  strings.TrimSpace(event.Description),
			Price:        event.Price,
			InstructorID: instructor.ID,
		})
		if err != nil {
			return NewDownstreamError(err, "could not create course")
		}
		course = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "course creation transaction failed")
	}

	recordActivity(ctx, h.activitySink, h.logger, h.now, ActivityEvent{
		EventType: ActivityEventCourseCreated,
		Actor:     ActorRef{ID: instructorID.String(), Type: "user"},
		UserID:    instructorID.String(),
		Metadata: map[string]any{
			"course_id": course.ID.String(),
			"title":     course.Title,
		},
	})

	return course, nil
}
