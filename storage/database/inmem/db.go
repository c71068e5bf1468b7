package inmemdb

import (
	"sync"

	"github.com/trezcool/jukutrack/core/school"
	"github.com/trezcool/jukutrack/core/student"
)

// DB is a mutex-guarded in-memory store used by tests and local development.
// Writers are serialized, so concurrent requests cannot lose updates.
type (
	DB struct {
		school  *schoolTable
		student *studentTable
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.School
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}
)

func Open() (*DB, error) {
	db := &DB{
		school:  &schoolTable{table: make(map[string]*school.School)},
		student: &studentTable{table: make(map[string]*student.Student)},
	}
	return db, nil
}
