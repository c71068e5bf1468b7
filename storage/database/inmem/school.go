package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/jukutrack/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CheckSchoolIDUniqueness(_ context.Context, id string) error {
	repo.db.school.RLock()
	defer repo.db.school.RUnlock()

	if _, ok := repo.db.school.table[id]; ok {
		return school.ErrSchoolExists
	}
	return nil
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.school.Lock()
	defer repo.db.school.Unlock()

	if _, ok := repo.db.school.table[sch.ID]; ok {
		return school.School{}, school.ErrSchoolExists
	}
	repo.db.school.table[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.school.Lock()
	defer repo.db.school.Unlock()

	orig, ok := repo.db.school.table[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	orig.Name = sch.Name
	orig.PasswordHash = sch.PasswordHash
	return *orig, nil
}

func (repo *schoolRepository) QueryAllSchools(_ context.Context) ([]school.School, error) {
	repo.db.school.RLock()
	defer repo.db.school.RUnlock()

	schools := make([]school.School, 0, len(repo.db.school.table))
	for _, sch := range repo.db.school.table {
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.school.RLock()
	defer repo.db.school.RUnlock()

	if sch, ok := repo.db.school.table[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) DeleteSchoolsByID(_ context.Context, ids ...string) error {
	repo.db.school.Lock()
	defer repo.db.school.Unlock()
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	for _, id := range ids {
		delete(repo.db.school.table, id)

		// cascade to owned students
		for stuID, stu := range repo.db.student.table {
			if stu.SchoolID == id {
				delete(repo.db.student.table, stuID)
			}
		}
	}
	return nil
}
