package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core"
)

var (
	ErrNotFound         = errors.New("student not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrTextbookNotFound = errors.New("textbook not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		// QueryStudentsBySchool applies the filter and ordering to the given
		// school's roster. Default ordering is grade DESC, name ASC.
		QueryStudentsBySchool(ctx context.Context, schoolID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// GetStudentByID returns the student with its records (date DESC)
		// and textbooks.
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		// DeleteStudentsByID also deletes all nested records and textbooks.
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		CreateRecord(ctx context.Context, studentID string, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, studentID, recID string) (Record, error)
		UpdateRecord(ctx context.Context, studentID string, rec Record) (Record, error)
		DeleteRecordsByID(ctx context.Context, studentID string, ids ...string) error

		CreateTextbook(ctx context.Context, studentID string, tb Textbook) (Textbook, error)
		UpdateTextbookProgress(ctx context.Context, studentID, tbID string, progress int) (Textbook, error)
		DeleteTextbooksByID(ctx context.Context, studentID string, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, schoolID string, ns NewStudent) (Student, error)
		QueryBySchool(ctx context.Context, schoolID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, ids ...string) error

		AddRecord(ctx context.Context, studentID string, nr NewRecord) (Record, error)
		GetRecord(ctx context.Context, studentID, recID string) (Record, error)
		UpdateRecord(ctx context.Context, studentID, recID string, ur UpdateRecord) (Record, error)
		DeleteRecord(ctx context.Context, studentID, recID string) error

		AddTextbook(ctx context.Context, studentID string, nt NewTextbook) (Textbook, error)
		SetTextbookProgress(ctx context.Context, studentID, tbID string, progress int) (Textbook, error)
		DeleteTextbook(ctx context.Context, studentID, tbID string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, schoolID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	stu := Student{
		SchoolID:  schoolID,
		Name:      ns.Name,
		Grade:     ns.Grade,
		Subject:   ns.Subject,
		Memo:      ns.Memo,
		Records:   []Record{},
		Textbooks: []Textbook{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, stu)
}

func (svc *service) QueryBySchool(ctx context.Context, schoolID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudentsBySchool(ctx, schoolID, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	stu := Student{
		ID:        id,
		Name:      us.Name,
		Grade:     us.Grade,
		Subject:   us.Subject,
		UpdatedAt: time.Now().UTC(),
	}
	if us.Memo != nil {
		stu.Memo = *us.Memo
	}
	return svc.repo.UpdateStudent(ctx, stu)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

func (svc *service) AddRecord(ctx context.Context, studentID string, nr NewRecord) (Record, error) {
	rec := Record{
		Date:    time.Now().UTC(),
		Content: nr.Content,
		Teacher: nr.Teacher,
	}
	return svc.repo.CreateRecord(ctx, studentID, rec)
}

func (svc *service) GetRecord(ctx context.Context, studentID, recID string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, studentID, recID)
}

func (svc *service) UpdateRecord(ctx context.Context, studentID, recID string, ur UpdateRecord) (Record, error) {
	rec := Record{
		ID:      recID,
		Content: ur.Content,
		Teacher: ur.Teacher,
	}
	return svc.repo.UpdateRecord(ctx, studentID, rec)
}

func (svc *service) DeleteRecord(ctx context.Context, studentID, recID string) error {
	return svc.repo.DeleteRecordsByID(ctx, studentID, recID)
}

func (svc *service) AddTextbook(ctx context.Context, studentID string, nt NewTextbook) (Textbook, error) {
	tb := Textbook{
		Title:       nt.Title,
		TotalPages:  nt.TotalPages,
		CurrentPage: nt.CurrentPage,
	}
	if nt.Progress != nil {
		tb.Progress = *nt.Progress
	}
	return svc.repo.CreateTextbook(ctx, studentID, tb)
}

func (svc *service) SetTextbookProgress(ctx context.Context, studentID, tbID string, progress int) (Textbook, error) {
	return svc.repo.UpdateTextbookProgress(ctx, studentID, tbID, progress)
}

func (svc *service) DeleteTextbook(ctx context.Context, studentID, tbID string) error {
	return svc.repo.DeleteTextbooksByID(ctx, studentID, tbID)
}
