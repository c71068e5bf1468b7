package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// clone deep-copies a student so callers never alias the stored nested slices.
func (repo *studentRepository) clone(stu student.Student) student.Student {
	records := make([]student.Record, len(stu.Records))
	copy(records, stu.Records)
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })

	textbooks := make([]student.Textbook, len(stu.Textbooks))
	copy(textbooks, stu.Textbooks)

	stu.Records = records
	stu.Textbooks = textbooks
	return stu
}

func (repo *studentRepository) matches(stu *student.Student, filter *student.QueryFilter) bool {
	if filter == nil || filter.IsEmpty() {
		return true
	}
	search := strings.ToLower(filter.Search)
	return strings.Contains(strings.ToLower(stu.Name), search) ||
		strings.Contains(strings.ToLower(stu.Subject), search)
}

func (repo *studentRepository) less(a, b student.Student, ordering []core.DBOrdering) bool {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "grade"}, {Field: "name", Ascending: true}}
	}
	for _, ord := range ordering {
		var av, bv string
		switch ord.Field {
		case "name":
			av, bv = a.Name, b.Name
		case "grade":
			av, bv = a.Grade, b.Grade
		case "subject":
			av, bv = a.Subject, b.Subject
		case "created_at":
			av, bv = a.CreatedAt.Format("2006-01-02T15:04:05.000000000"), b.CreatedAt.Format("2006-01-02T15:04:05.000000000")
		case "updated_at":
			av, bv = a.UpdatedAt.Format("2006-01-02T15:04:05.000000000"), b.UpdatedAt.Format("2006-01-02T15:04:05.000000000")
		default:
			continue
		}
		if av == bv {
			continue
		}
		if ord.Ascending {
			return av < bv
		}
		return av > bv
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu.ID = uuid.New().String()
	stored := repo.clone(stu)
	repo.db.student.table[stu.ID] = &stored
	return repo.clone(stored), nil
}

func (repo *studentRepository) QueryStudentsBySchool(
	_ context.Context,
	schoolID string,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
) ([]student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]student.Student, 0)
	for _, stu := range repo.db.student.table {
		if stu.SchoolID == schoolID && repo.matches(stu, filter) {
			students = append(students, repo.clone(*stu))
		}
	}
	sort.SliceStable(students, func(i, j int) bool { return repo.less(students[i], students[j], ordering) })
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if stu, ok := repo.db.student.table[id]; ok {
		return repo.clone(*stu), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	// ID, owner, nested collections and created_at are preserved
	origStu, ok := repo.db.student.table[stu.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	origStu.Name = stu.Name
	origStu.Grade = stu.Grade
	origStu.Subject = stu.Subject
	origStu.Memo = stu.Memo
	origStu.UpdatedAt = stu.UpdatedAt
	return repo.clone(*origStu), nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()
	for _, id := range ids {
		delete(repo.db.student.table, id)
	}
	return nil
}

func (repo *studentRepository) CreateRecord(_ context.Context, studentID string, rec student.Record) (student.Record, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.Record{}, student.ErrNotFound
	}
	rec.ID = uuid.New().String()
	stu.Records = append(stu.Records, rec)
	return rec, nil
}

func (repo *studentRepository) GetRecordByID(_ context.Context, studentID, recID string) (student.Record, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.Record{}, student.ErrNotFound
	}
	for _, rec := range stu.Records {
		if rec.ID == recID {
			return rec, nil
		}
	}
	return student.Record{}, student.ErrRecordNotFound
}

func (repo *studentRepository) UpdateRecord(_ context.Context, studentID string, rec student.Record) (student.Record, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.Record{}, student.ErrNotFound
	}
	for i, orig := range stu.Records {
		if orig.ID == rec.ID {
			// id and date are immutable
			stu.Records[i].Content = rec.Content
			stu.Records[i].Teacher = rec.Teacher
			return stu.Records[i], nil
		}
	}
	return student.Record{}, student.ErrRecordNotFound
}

func (repo *studentRepository) DeleteRecordsByID(_ context.Context, studentID string, ids ...string) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	var deleted bool
	for _, id := range ids {
		for i, rec := range stu.Records {
			if rec.ID == id {
				stu.Records = append(stu.Records[:i], stu.Records[i+1:]...)
				deleted = true
				break
			}
		}
	}
	if !deleted {
		return student.ErrRecordNotFound
	}
	return nil
}

func (repo *studentRepository) CreateTextbook(_ context.Context, studentID string, tb student.Textbook) (student.Textbook, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.Textbook{}, student.ErrNotFound
	}
	tb.ID = uuid.New().String()
	stu.Textbooks = append(stu.Textbooks, tb)
	return tb, nil
}

func (repo *studentRepository) UpdateTextbookProgress(_ context.Context, studentID, tbID string, progress int) (student.Textbook, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.Textbook{}, student.ErrNotFound
	}
	for i, tb := range stu.Textbooks {
		if tb.ID == tbID {
			stu.Textbooks[i].Progress = progress
			return stu.Textbooks[i], nil
		}
	}
	return student.Textbook{}, student.ErrTextbookNotFound
}

func (repo *studentRepository) DeleteTextbooksByID(_ context.Context, studentID string, ids ...string) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	stu, ok := repo.db.student.table[studentID]
	if !ok {
		return student.ErrNotFound
	}
	var deleted bool
	for _, id := range ids {
		for i, tb := range stu.Textbooks {
			if tb.ID == id {
				stu.Textbooks = append(stu.Textbooks[:i], stu.Textbooks[i+1:]...)
				deleted = true
				break
			}
		}
	}
	if !deleted {
		return student.ErrTextbookNotFound
	}
	return nil
}
