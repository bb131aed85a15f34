package edu

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UpdateCourseMessage is a partial course edit. Nil fields are left untouched.
type UpdateCourseMessage struct {
	CourseID    string   `json:"-"`
	ActorID     string   `json:"-"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

func (e UpdateCourseMessage) Type() string { return "course.update" }

func (e UpdateCourseMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.CourseID, validation.Required),
		validation.Field(&e.ActorID, validation.Required),
		validation.Field(&e.Title, validation.NilOrNotEmpty, validation.Length(3, 200)),
		validation.Field(&e.Description, validation.NilOrNotEmpty, validation.Length(10, 1000)),
		validation.Field(&e.Price, validation.By(positivePrice)),
	)
}

// IsEmpty reports whether the message changes nothing.
func (e UpdateCourseMessage) IsEmpty() bool {
	return e.Title == nil && e.Description == nil && e.Price == nil
}

// UpdateCourseHandler applies edits to courses owned by the caller.
type UpdateCourseHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

func NewUpdateCourseHandler(repo RepositoryManager, opts ...CourseCommandOption) *UpdateCourseHandler {
	o := resolveCourseOptions("edu.courses.update", opts)
	return &UpdateCourseHandler{
		repo:         repo,
		activitySink: o.activitySink,
		logger:       o.logger,
		now:          time.Now,
	}
}

func (h *UpdateCourseHandler) Execute(ctx context.Context, event UpdateCourseMessage) error {
	_, err := h.Update(ctx, event)
	return err
}

// Update writes the provided fields. Only the owning instructor may edit
// a course, anyone else gets ErrForbidden.
func (h *UpdateCourseHandler) Update(ctx context.Context, event UpdateCourseMessage) (*Course, error) {
	if err := event.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	var (
		course  *Course
		columns []string
	)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Courses().GetByIDTx(ctx, tx, event.CourseID)
		if err != nil {
			if goerrors.Is(err, ErrCourseNotFound) {
				return ErrCourseNotFound
			}
			return NewDownstreamError(err, "could not look up course")
		}

		if !current.OwnedBy(event.ActorID) {
			return ErrForbidden
		}

		if event.Title != nil {
			current.Title = strings.TrimSpace(*event.Title)
			columns = append(columns, "title")
		}
		if event.Description != nil {
			current.Description = strings.TrimSpace(*event.Description)
			columns = append(columns, "description")
		}
		if event.Price != nil {
			current.Price = *event.Price
			columns = append(columns, "price")
		}

		if len(columns) == 0 {
			course = current
			return nil
		}

		current.Instructor = nil
		updated, err := h.repo.Courses().UpdateTx(ctx, tx, current, columns...)
		if err != nil {
			if goerrors.Is(err, ErrCourseNotFound) {
				return ErrCourseNotFound
			}
			return NewDownstreamError(err, "could not update course")
		}
		course = updated
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "course update transaction failed")
	}

	if len(columns) > 0 {
		recordActivity(ctx, h.activitySink, h.logger, h.now, ActivityEvent{
			EventType: ActivityEventCourseUpdated,
			Actor:     ActorRef{ID: event.ActorID, Type: "user"},
			UserID:    event.ActorID,
			Metadata: map[string]any{
				"course_id": course.ID.String(),
				"fields":    columns,
			},
		})
	}

	return course, nil
}
