package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/jukutrack/core/school"
	"github.com/trezcool/jukutrack/core/student"
)

// CreateSchool persists a school account for tests.
func CreateSchool(t *testing.T, repo school.Repository, id, name, pwd string) school.School {
	t.Helper()

	sch := school.School{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := sch.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	sch, err := repo.CreateSchool(context.Background(), sch)
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

// CreateStudent persists a student owned by the given school for tests.
func CreateStudent(t *testing.T, repo student.Repository, schoolID, name, grade, subject string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	stu := student.Student{
		SchoolID:  schoolID,
		Name:      name,
		Grade:     grade,
		Subject:   subject,
		Records:   []student.Record{},
		Textbooks: []student.Textbook{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	stu, err := repo.CreateStudent(context.Background(), stu)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

// AddRecord appends a session record for tests.
func AddRecord(t *testing.T, repo student.Repository, studentID, content, teacher string) student.Record {
	t.Helper()

	rec, err := repo.CreateRecord(context.Background(), studentID, student.Record{
		Date:    time.Now().UTC(),
		Content: content,
		Teacher: teacher,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

// AddTextbook attaches a textbook for tests.
func AddTextbook(t *testing.T, repo student.Repository, studentID, title string, progress int) student.Textbook {
	t.Helper()

	tb, err := repo.CreateTextbook(context.Background(), studentID, student.Textbook{
		Title:    title,
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("CreateTextbook() failed: %v", err)
	}
	return tb
}
