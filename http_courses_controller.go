package edu

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// CourseControllerRoutes holds the paths served by CourseController
type CourseControllerRoutes struct {
	List      string
	MyCourses string
	Get       string
	Create    string
	Update    string
}

// CourseController serves the course catalog
type CourseController struct {
	Logger       Logger
	Routes       *CourseControllerRoutes
	ContextKey   string
	ErrorHandler router.ErrorHandler
	repo         RepositoryManager
	create       *CreateCourseHandler
	update       *UpdateCourseHandler
}

// CourseControllerOption customizes the controller
type CourseControllerOption func(*CourseController)

// WithCourseControllerLogger sets the logger.
func WithCourseControllerLogger(logger Logger) CourseControllerOption {
	return func(cc *CourseController) {
		if logger != nil {
			cc.Logger = logger
		}
	}
}

// WithCourseControllerContextKey sets the locals key holding verified claims.
func WithCourseControllerContextKey(key string) CourseControllerOption {
	return func(cc *CourseController) {
		if key != "" {
			cc.ContextKey = key
		}
	}
}

// WithCourseControllerErrorHandler sets the renderer for failed requests.
func WithCourseControllerErrorHandler(handler router.ErrorHandler) CourseControllerOption {
	return func(cc *CourseController) {
		if handler != nil {
			cc.ErrorHandler = handler
		}
	}
}

func NewCourseController(repo RepositoryManager, create *CreateCourseHandler, update *UpdateCourseHandler, opts ...CourseControllerOption) *CourseController {
	cc := &CourseController{
		Logger:     defLogger{name: "edu.courses"},
		ContextKey: DefaultContextKey,
		Routes: &CourseControllerRoutes{
			List:      "/",
			MyCourses: "/my-courses",
			Get:       "/:id",
			Create:    "/",
			Update:    "/:id",
		},
		repo:   repo,
		create: create,
		update: update,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cc)
		}
	}
	if cc.ErrorHandler == nil {
		cc.ErrorHandler = NewErrorHandler(cc.Logger)
	}
	return cc
}

// RegisterRoutes mounts the catalog on r. protected must verify the bearer
// token and store the claims under the controller context key.
func (cc *CourseController) RegisterRoutes(r RouteRegistrar, protected router.MiddlewareFunc) {
	rescue := RenderErrors(cc.ErrorHandler)
	instructorOnly := RequireRoles(cc.ContextKey, RoleInstructor)

	r.Get(cc.Routes.List, withMiddleware(cc.ListGet, rescue))
	r.Get(cc.Routes.MyCourses, withMiddleware(cc.MyCoursesGet, rescue, protected, instructorOnly))
	r.Get(cc.Routes.Get, withMiddleware(cc.CourseGet, rescue))
	r.Post(cc.Routes.Create, withMiddleware(cc.CreatePost, rescue, protected, instructorOnly))
	r.Patch(cc.Routes.Update, withMiddleware(cc.UpdatePatch, rescue, protected, instructorOnly,
		RequireSelfOrRoles(cc.ContextKey, cc.courseOwner),
	))
}

// CoursesResponse wraps a course listing
type CoursesResponse struct {
	Courses []*Course `json:"courses"`
}

// CourseResponse wraps a single course
type CourseResponse struct {
	Message string  `json:"message,omitempty"`
	Course  *Course `json:"course"`
}

func (cc *CourseController) ListGet(ctx router.Context) error {
	records, err := cc.repo.Courses().List(ctx.Context())
	if err != nil {
		return NewDownstreamError(err, "could not list courses")
	}
	return ctx.JSON(http.StatusOK, CoursesResponse{Courses: records})
}

func (cc *CourseController) MyCoursesGet(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx, cc.ContextKey)
	if !ok {
		return ErrInvalidToken
	}

	instructorID, err := uuid.Parse(identity.ID())
	if err != nil {
		return ErrInvalidToken
	}

	records, err := cc.repo.Courses().ListByInstructor(ctx.Context(), instructorID)
	if err != nil {
		return NewDownstreamError(err, "could not list courses")
	}
	return ctx.JSON(http.StatusOK, CoursesResponse{Courses: records})
}

func (cc *CourseController) CourseGet(ctx router.Context) error {
	id, err := courseIDParam(ctx)
	if err != nil {
		return err
	}

	course, err := cc.repo.Courses().GetByID(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Course: course})
}

func (cc *CourseController) CreatePost(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx, cc.ContextKey)
	if !ok {
		return ErrInvalidToken
	}

	payload := CreateCourseMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return err
	}
	payload.InstructorID = identity.ID()

	course, err := cc.create.Create(ctx.Context(), payload)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, CourseResponse{
		Message: "Course created successfully",
		Course:  course,
	})
}

func (cc *CourseController) UpdatePatch(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx, cc.ContextKey)
	if !ok {
		return ErrInvalidToken
	}

	id, err := courseIDParam(ctx)
	if err != nil {
		return err
	}

	payload := UpdateCourseMessage{}
	if err := parseBody(ctx, &payload); err != nil {
		return err
	}
	payload.CourseID = id
	payload.ActorID = identity.ID()

	course, err := cc.update.Update(ctx.Context(), payload)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, CourseResponse{
		Message: "Course updated successfully",
		Course:  course,
	})
}

func (cc *CourseController) courseOwner(ctx router.Context) (string, error) {
	id, err := courseIDParam(ctx)
	if err != nil {
		return "", err
	}
	course, err := cc.repo.Courses().GetByID(ctx.Context(), id)
	if err != nil {
		return "", err
	}
	return course.InstructorID.String(), nil
}

func courseIDParam(ctx router.Context) (string, error) {
	id := strings.TrimSpace(ctx.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrMalformedID
	}
	return id, nil
}
