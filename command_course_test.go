package edu_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-edu"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestCreateCourse(t *testing.T) {
	repo, _ := newTestRepo(t)
	sink := &recordingSink{}
	handler := edu.NewCreateCourseHandler(repo, edu.WithCourseActivitySink(sink))
	instructor := seedUser(t, repo, "grace@example.com", edu.RoleInstructor, edu.UserStatusActive)

	course, err := handler.Create(context.Background(), edu.CreateCourseMessage{
		Title:        "  Compilers ",
		Description:  "From source text to machine code",
		Price:        49.5,
		InstructorID: instructor.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Compilers", course.Title)
	assert.Equal(t, instructor.ID, course.InstructorID)

	stored, err := repo.Courses().GetByID(context.Background(), course.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 49.5, stored.Price)

	require.Len(t, sink.events, 1)
	assert.Equal(t, edu.ActivityEventCourseCreated, sink.events[0].EventType)
	assert.Equal(t, course.ID.String(), sink.events[0].Metadata["course_id"])
}

func TestCreateCourse_Validation(t *testing.T) {
	repo, _ := newTestRepo(t)
	handler := edu.NewCreateCourseHandler(repo)
	owner := uuid.NewString()

	cases := map[string]edu.CreateCourseMessage{
		"short title":       {Title: "Go", Description: "A long enough description", Price: 10, InstructorID: owner},
		"short description": {Title: "Compilers", Description: "short", Price: 10, InstructorID: owner},
		"zero price":        {Title: "Compilers", Description: "A long enough description", InstructorID: owner},
		"negative price":    {Title: "Compilers", Description: "A long enough description", Price: -1, InstructorID: owner},
	}

	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := handler.Create(context.Background(), msg)
			require.Error(t, err)
			assert.True(t, edu.HasTextCode(err, edu.TextCodeValidation), err.Error())
		})
	}
}

func TestCreateCourse_StudentForbidden(t *testing.T) {
	repo, _ := newTestRepo(t)
	handler := edu.NewCreateCourseHandler(repo)
	student := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusActive)

	_, err := handler.Create(context.Background(), edu.CreateCourseMessage{
		Title:        "Compilers",
		Description:  "From source text to machine code",
		Price:        10,
		InstructorID: student.ID.String(),
	})
	assert.ErrorIs(t, err, edu.ErrForbidden)

	all, err := repo.Courses().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateCourse_MissingInstructor(t *testing.T) {
	repo, _ := newTestRepo(t)
	handler := edu.NewCreateCourseHandler(repo)

	_, err := handler.Create(context.Background(), edu.CreateCourseMessage{
		Title:        "Compilers",
		Description:  "From source text to machine code",
		Price:        10,
		InstructorID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, edu.ErrUserNotFound)
}

type courseFixture struct {
	repo    edu.RepositoryManager
	handler *edu.UpdateCourseHandler
	sink    *recordingSink
	owner   *edu.User
	course  *edu.Course
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	repo, _ := newTestRepo(t)
	sink := &recordingSink{}
	owner := seedUser(t, repo, "grace@example.com", edu.RoleInstructor, edu.UserStatusActive)

	course, err := edu.NewCreateCourseHandler(repo).Create(context.Background(), edu.CreateCourseMessage{
		Title:        "Compilers",
		Description:  "From source text to machine code",
		Price:        49.5,
		InstructorID: owner.ID.String(),
	})
	require.NoError(t, err)

	return &courseFixture{
		repo:    repo,
		handler: edu.NewUpdateCourseHandler(repo, edu.WithCourseActivitySink(sink)),
		sink:    sink,
		owner:   owner,
		course:  course,
	}
}

func TestUpdateCourse_PartialFields(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	updated, err := f.handler.Update(ctx, edu.UpdateCourseMessage{
		CourseID: f.course.ID.String(),
		ActorID:  f.owner.ID.String(),
		Price:    floatPtr(19.99),
	})
	require.NoError(t, err)
	assert.Equal(t, 19.99, updated.Price)

	stored, err := f.repo.Courses().GetByID(ctx, f.course.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 19.99, stored.Price)
	assert.Equal(t, "Compilers", stored.Title)
	assert.Equal(t, "From source text to machine code", stored.Description)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, edu.ActivityEventCourseUpdated, f.sink.events[0].EventType)
	assert.Equal(t, []string{"price"}, f.sink.events[0].Metadata["fields"])
}

func TestUpdateCourse_AllFields(t *testing.T) {
	f := newCourseFixture(t)

	updated, err := f.handler.Update(context.Background(), edu.UpdateCourseMessage{
		CourseID:    f.course.ID.String(),
		ActorID:     f.owner.ID.String(),
		Title:       strPtr("Compilers II"),
		Description: strPtr("Optimizations and code generation"),
		Price:       floatPtr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, "Compilers II", updated.Title)
	assert.Equal(t, "Optimizations and code generation", updated.Description)
	assert.Equal(t, float64(60), updated.Price)
}

func TestUpdateCourse_NothingToChange(t *testing.T) {
	f := newCourseFixture(t)

	msg := edu.UpdateCourseMessage{CourseID: f.course.ID.String(), ActorID: f.owner.ID.String()}
	assert.True(t, msg.IsEmpty())

	course, err := f.handler.Update(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, f.course.ID, course.ID)
	assert.Empty(t, f.sink.events)
}

func TestUpdateCourse_OnlyOwner(t *testing.T) {
	f := newCourseFixture(t)
	other := seedUser(t, f.repo, "alan@example.com", edu.RoleInstructor, edu.UserStatusActive)

	_, err := f.handler.Update(context.Background(), edu.UpdateCourseMessage{
		CourseID: f.course.ID.String(),
		ActorID:  other.ID.String(),
		Title:    strPtr("Hijacked"),
	})
	assert.ErrorIs(t, err, edu.ErrForbidden)

	stored, err := f.repo.Courses().GetByID(context.Background(), f.course.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Compilers", stored.Title)
}

func TestUpdateCourse_Errors(t *testing.T) {
	f := newCourseFixture(t)

	_, err := f.handler.Update(context.Background(), edu.UpdateCourseMessage{
		CourseID: uuid.NewString(),
		ActorID:  f.owner.ID.String(),
		Title:    strPtr("Ghost course"),
	})
	assert.ErrorIs(t, err, edu.ErrCourseNotFound)

	_, err = f.handler.Update(context.Background(), edu.UpdateCourseMessage{
		CourseID: f.course.ID.String(),
		ActorID:  f.owner.ID.String(),
		Price:    floatPtr(-5),
	})
	require.Error(t, err)
	assert.True(t, edu.HasTextCode(err, edu.TextCodeValidation))

	_, err = f.handler.Update(context.Background(), edu.UpdateCourseMessage{
		CourseID: f.course.ID.String(),
		ActorID:  f.owner.ID.String(),
		Title:    strPtr(""),
	})
	require.Error(t, err)
	assert.True(t, edu.HasTextCode(err, edu.TextCodeValidation))
}
