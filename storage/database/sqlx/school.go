package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core/school"
)

type dbSchool struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sql.DB) *schoolRepository {
	return &schoolRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo schoolRepository) toCore(sch dbSchool) school.School {
	return school.School{
		ID:           sch.ID,
		Name:         sch.Name,
		PasswordHash: sch.PasswordHash,
		CreatedAt:    sch.CreatedAt.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to school.ErrNotFound
func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) CheckSchoolIDUniqueness(ctx context.Context, id string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM schools WHERE id = $1)", id)
	if err != nil {
		return errors.Wrap(err, "checking school uniqueness")
	}
	if exists {
		return school.ErrSchoolExists
	}
	return nil
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO schools (id, name, password_hash, created_at) VALUES ($1, $2, $3, $4)",
		sch.ID, sch.Name, sch.PasswordHash, sch.CreatedAt.UTC(),
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE schools SET name = $2, password_hash = $3 WHERE id = $1",
		sch.ID, sch.Name, sch.PasswordHash,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, err := res.RowsAffected(); err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	} else if n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return repo.GetSchoolByID(ctx, sch.ID)
}

func (repo schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	var rows []dbSchool
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM schools ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.toCore(row))
	}
	return schools, nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row dbSchool
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM schools WHERE id = $1", id); err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "finding school by ID")
	}
	return repo.toCore(row), nil
}

// DeleteSchoolsByID removes the schools; owned students (and their records
// and textbooks) go with them via ON DELETE CASCADE.
func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, "DELETE FROM schools WHERE id = ANY($1)", pq.Array(ids))
	return errors.Wrap(err, "deleting schools")
}
