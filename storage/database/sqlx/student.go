package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/student"
)

// orderable columns for roster listings
var studentOrderColumns = map[string]string{
	"name":       "name",
	"grade":      "grade",
	"subject":    "subject",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const defaultStudentOrdering = "grade DESC, name ASC"

type (
	dbStudent struct {
		ID        string    `db:"id"`
		SchoolID  string    `db:"school_id"`
		Name      string    `db:"name"`
		Grade     string    `db:"grade"`
		Subject   string    `db:"subject"`
		Memo      string    `db:"memo"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	dbRecord struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		Date      time.Time `db:"date"`
		Content   string    `db:"content"`
		Teacher   string    `db:"teacher"`
	}

	dbTextbook struct {
		ID          string `db:"id"`
		StudentID   string `db:"student_id"`
		Title       string `db:"title"`
		TotalPages  int    `db:"total_pages"`
		CurrentPage int    `db:"current_page"`
		Progress    int    `db:"progress"`
	}
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sql.DB) *studentRepository {
	return &studentRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo studentRepository) toCore(stu dbStudent, recs []dbRecord, tbs []dbTextbook) student.Student {
	records := make([]student.Record, 0, len(recs))
	for _, r := range recs {
		records = append(records, repo.toCoreRecord(r))
	}
	textbooks := make([]student.Textbook, 0, len(tbs))
	for _, tb := range tbs {
		textbooks = append(textbooks, repo.toCoreTextbook(tb))
	}
	return student.Student{
		ID:        stu.ID,
		SchoolID:  stu.SchoolID,
		Name:      stu.Name,
		Grade:     stu.Grade,
		Subject:   stu.Subject,
		Memo:      stu.Memo,
		Records:   records,
		Textbooks: textbooks,
		CreatedAt: stu.CreatedAt.UTC(),
		UpdatedAt: stu.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) toCoreRecord(rec dbRecord) student.Record {
	return student.Record{
		ID:      rec.ID,
		Date:    rec.Date.UTC(),
		Content: rec.Content,
		Teacher: rec.Teacher,
	}
}

func (repo studentRepository) toCoreTextbook(tb dbTextbook) student.Textbook {
	return student.Textbook{
		ID:          tb.ID,
		Title:       tb.Title,
		TotalPages:  tb.TotalPages,
		CurrentPage: tb.CurrentPage,
		Progress:    tb.Progress,
	}
}

func (repo studentRepository) orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return defaultStudentOrdering
	}
	terms := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := studentOrderColumns[ord.Field]
		if !ok {
			continue
		}
		terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(terms) == 0 {
		return defaultStudentOrdering
	}
	return strings.Join(terms, ", ")
}

// loadNested fetches records (date DESC) and textbooks for the given students.
func (repo studentRepository) loadNested(ctx context.Context, ids []string) (map[string][]dbRecord, map[string][]dbTextbook, error) {
	recsByStudent := make(map[string][]dbRecord)
	tbsByStudent := make(map[string][]dbTextbook)
	if len(ids) == 0 {
		return recsByStudent, tbsByStudent, nil
	}

	var recs []dbRecord
	err := repo.db.SelectContext(ctx, &recs,
		"SELECT * FROM records WHERE student_id = ANY($1) ORDER BY date DESC", pq.Array(ids))
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying records")
	}
	for _, rec := range recs {
		recsByStudent[rec.StudentID] = append(recsByStudent[rec.StudentID], rec)
	}

	var tbs []dbTextbook
	err = repo.db.SelectContext(ctx, &tbs,
		"SELECT * FROM textbooks WHERE student_id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying textbooks")
	}
	for _, tb := range tbs {
		tbsByStudent[tb.StudentID] = append(tbsByStudent[tb.StudentID], tb)
	}
	return recsByStudent, tbsByStudent, nil
}

func (repo studentRepository) studentExists(ctx context.Context, id string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)", id); err != nil {
		return errors.Wrap(err, "checking student")
	}
	if !exists {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	stu.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO students (id, school_id, name, grade, subject, memo, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		stu.ID, stu.SchoolID, stu.Name, stu.Grade, stu.Subject, stu.Memo, stu.CreatedAt.UTC(), stu.UpdatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return stu, nil
}

func (repo studentRepository) QueryStudentsBySchool(
	ctx context.Context,
	schoolID string,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
) ([]student.Student, error) {
	query := "SELECT * FROM students WHERE school_id = $1"
	args := []interface{}{schoolID}
	if filter != nil && !filter.IsEmpty() {
		query += " AND (name ILIKE $2 OR subject ILIKE $2)"
		args = append(args, "%"+filter.Search+"%")
	}
	query += " ORDER BY " + repo.orderBy(ordering)

	var rows []dbStudent
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	recsByStudent, tbsByStudent, err := repo.loadNested(ctx, ids)
	if err != nil {
		return nil, err
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.toCore(row, recsByStudent[row.ID], tbsByStudent[row.ID]))
	}
	return students, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row dbStudent
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM students WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	recsByStudent, tbsByStudent, err := repo.loadNested(ctx, []string{row.ID})
	if err != nil {
		return student.Student{}, err
	}
	return repo.toCore(row, recsByStudent[row.ID], tbsByStudent[row.ID]), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE students SET name = $2, grade = $3, subject = $4, memo = $5, updated_at = $6 WHERE id = $1",
		stu.ID, stu.Name, stu.Grade, stu.Subject, stu.Memo, stu.UpdatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, stu.ID)
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, "DELETE FROM students WHERE id = ANY($1)", pq.Array(ids))
	return errors.Wrap(err, "deleting students")
}

func (repo studentRepository) CreateRecord(ctx context.Context, studentID string, rec student.Record) (student.Record, error) {
	if err := repo.studentExists(ctx, studentID); err != nil {
		return student.Record{}, err
	}
	rec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO records (id, student_id, date, content, teacher) VALUES ($1, $2, $3, $4, $5)",
		rec.ID, studentID, rec.Date.UTC(), rec.Content, rec.Teacher,
	)
	if err != nil {
		return student.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo studentRepository) GetRecordByID(ctx context.Context, studentID, recID string) (student.Record, error) {
	var row dbRecord
	err := repo.db.GetContext(ctx, &row,
		"SELECT * FROM records WHERE id = $1 AND student_id = $2", recID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Record{}, student.ErrRecordNotFound
		}
		return student.Record{}, errors.Wrap(err, "finding record by ID")
	}
	return repo.toCoreRecord(row), nil
}

func (repo studentRepository) UpdateRecord(ctx context.Context, studentID string, rec student.Record) (student.Record, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE records SET content = $3, teacher = $4 WHERE id = $1 AND student_id = $2",
		rec.ID, studentID, rec.Content, rec.Teacher,
	)
	if err != nil {
		return student.Record{}, errors.Wrap(err, "updating record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Record{}, student.ErrRecordNotFound
	}
	return repo.GetRecordByID(ctx, studentID, rec.ID)
}

func (repo studentRepository) DeleteRecordsByID(ctx context.Context, studentID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := repo.db.ExecContext(ctx,
		"DELETE FROM records WHERE student_id = $1 AND id = ANY($2)", studentID, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting records")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrRecordNotFound
	}
	return nil
}

func (repo studentRepository) CreateTextbook(ctx context.Context, studentID string, tb student.Textbook) (student.Textbook, error) {
	if err := repo.studentExists(ctx, studentID); err != nil {
		return student.Textbook{}, err
	}
	tb.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO textbooks (id, student_id, title, total_pages, current_page, progress) "+
			"VALUES ($1, $2, $3, $4, $5, $6)",
		tb.ID, studentID, tb.Title, tb.TotalPages, tb.CurrentPage, tb.Progress,
	)
	if err != nil {
		return student.Textbook{}, errors.Wrap(err, "inserting textbook")
	}
	return tb, nil
}

func (repo studentRepository) UpdateTextbookProgress(ctx context.Context, studentID, tbID string, progress int) (student.Textbook, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE textbooks SET progress = $3 WHERE id = $1 AND student_id = $2",
		tbID, studentID, progress,
	)
	if err != nil {
		return student.Textbook{}, errors.Wrap(err, "updating textbook progress")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Textbook{}, student.ErrTextbookNotFound
	}

	var row dbTextbook
	err = repo.db.GetContext(ctx, &row,
		"SELECT * FROM textbooks WHERE id = $1 AND student_id = $2", tbID, studentID)
	if err != nil {
		return student.Textbook{}, repo.trapNoTextbook(err)
	}
	return repo.toCoreTextbook(row), nil
}

func (repo studentRepository) DeleteTextbooksByID(ctx context.Context, studentID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := repo.db.ExecContext(ctx,
		"DELETE FROM textbooks WHERE student_id = $1 AND id = ANY($2)", studentID, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting textbooks")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrTextbookNotFound
	}
	return nil
}

func (repo studentRepository) trapNoTextbook(err error) error {
	if err == sql.ErrNoRows {
		return student.ErrTextbookNotFound
	}
	return errors.Wrap(err, "finding textbook")
}
