package edu

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Courses is the course catalog store
type Courses interface {
	List(ctx context.Context) ([]*Course, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]*Course, error)
	GetByID(ctx context.Context, id string) (*Course, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id string) (*Course, error)
	Create(ctx context.Context, course *Course) (*Course, error)
	CreateTx(ctx context.Context, tx bun.IDB, course *Course) (*Course, error)
	UpdateTx(ctx context.Context, tx bun.IDB, course *Course, columns ...string) (*Course, error)
}

type courses struct {
	repo repository.Repository[*Course]
	db   *bun.DB
	now  func() time.Time
}

var _ Courses = (*courses)(nil)

// NewCoursesRepository returns a bun backed Courses store.
func NewCoursesRepository(db *bun.DB) Courses {
	repo := repository.NewRepository[*Course](db, repository.ModelHandlers[*Course]{
		NewRecord: func() *Course { return &Course{} },
		GetID: func(c *Course) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Course, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})
	return &courses{repo: repo, db: db, now: time.Now}
}

func (c *courses) List(ctx context.Context) ([]*Course, error) {
	return c.list(ctx, nil)
}

func (c *courses) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]*Course, error) {
	return c.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.instructor_id = ?", instructorID)
	})
}

func (c *courses) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*Course, error) {
	records := []*Course{}
	q := c.db.NewSelect().
		Model(&records).
		Relation("Instructor").
		OrderExpr("?TableAlias.created_at DESC")

	if filter != nil {
		q = filter(q)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	for _, record := range records {
		record.Instructor = record.Instructor.Public()
	}
	return records, nil
}

func (c *courses) GetByID(ctx context.Context, id string) (*Course, error) {
	return c.GetByIDTx(ctx, c.db, id)
}

func (c *courses) GetByIDTx(ctx context.Context, tx bun.IDB, id string) (*Course, error) {
	cid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrCourseNotFound
	}

	record := &Course{}
	err = tx.NewSelect().
		Model(record).
		Relation("Instructor").
		Where("?TableAlias.id = ?", cid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	record.Instructor = record.Instructor.Public()
	return record, nil
}

func (c *courses) Create(ctx context.Context, course *Course) (*Course, error) {
	return c.CreateTx(ctx, c.db, course)
}

func (c *courses) CreateTx(ctx context.Context, tx bun.IDB, course *Course) (*Course, error) {
	if course == nil {
		return nil, errors.New("course must not be nil")
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := c.now()
	course.CreatedAt = &now
	course.UpdatedAt = &now
	return c.repo.CreateTx(ctx, tx, course)
}

// UpdateTx writes the given columns and returns the refreshed course.
func (c *courses) UpdateTx(ctx context.Context, tx bun.IDB, course *Course, columns ...string) (*Course, error) {
	if course == nil {
		return nil, errors.New("course must not be nil")
	}

	now := c.now()
	course.UpdatedAt = &now
	columns = append(columns, "updated_at")

	res, err := tx.NewUpdate().
		Model(course).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrCourseNotFound
	}

	return c.GetByIDTx(ctx, tx, course.ID.String())
}
