package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/jukutrack/core"
)

type (
	// Student is a learner record owned by exactly one School.
	Student struct {
		ID        string     `json:"id"`
		SchoolID  string     `json:"school_id"`
		Name      string     `json:"name"`
		Grade     string     `json:"grade"`
		Subject   string     `json:"subject"`
		Memo      string     `json:"memo"`
		Records   []Record   `json:"records"`
		Textbooks []Textbook `json:"textbooks"`
		CreatedAt time.Time  `json:"created_at"` // UTC
		UpdatedAt time.Time  `json:"updated_at"` // UTC
	}

	// Record is a dated free-text note describing one tutoring session.
	// Date is server-assigned at creation and immutable.
	Record struct {
		ID      string    `json:"id"`
		Date    time.Time `json:"date"` // UTC
		Content string    `json:"content"`
		Teacher string    `json:"teacher"`
	}

	// Textbook is a tracked workbook item with a completion percentage.
	Textbook struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		TotalPages  int    `json:"total_pages"`
		CurrentPage int    `json:"current_page"`
		Progress    int    `json:"progress"` // 0 - 100
	}
)

// NewStudent contains information needed to create a new Student.
// The owning school comes from the authenticated caller, never the payload.
type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	Grade   string `json:"grade" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Memo    string `json:"memo"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Memo = core.CleanString(ns.Memo)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an
// existing Student. ID, owner and the nested collections are immutable here.
type UpdateStudent struct {
	Name    string  `json:"name"`
	Grade   string  `json:"grade"`
	Subject string  `json:"subject"`
	Memo    *string `json:"memo"`
}

func (us *UpdateStudent) Validate(origStu Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = origStu.Name
	}
	if grade := core.CleanString(us.Grade); grade != "" {
		us.Grade = grade
	} else {
		us.Grade = origStu.Grade
	}
	if subject := core.CleanString(us.Subject); subject != "" {
		us.Subject = subject
	} else {
		us.Subject = origStu.Subject
	}
	if us.Memo == nil {
		us.Memo = &origStu.Memo
	} else {
		memo := core.CleanString(*us.Memo)
		us.Memo = &memo
	}
	return validate.Struct(us)
}

// NewRecord contains information needed to append a session Record.
type NewRecord struct {
	Content string `json:"content" validate:"required"`
	Teacher string `json:"teacher"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Content = core.CleanString(nr.Content)
	nr.Teacher = core.CleanString(nr.Teacher)
	return validate.Struct(nr)
}

// UpdateRecord replaces a Record's content and teacher; id and date are immutable.
type UpdateRecord struct {
	Content string `json:"content" validate:"required"`
	Teacher string `json:"teacher"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Content = core.CleanString(ur.Content)
	ur.Teacher = core.CleanString(ur.Teacher)
	return validate.Struct(ur)
}

// NewTextbook contains information needed to add a Textbook.
type NewTextbook struct {
	Title       string `json:"title" validate:"required"`
	TotalPages  int    `json:"total_pages" validate:"omitempty,min=0"`
	CurrentPage int    `json:"current_page" validate:"omitempty,min=0"`
	Progress    *int   `json:"progress" validate:"omitempty,min=0,max=100"`
}

func (nt *NewTextbook) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	return validate.Struct(nt)
}

// TextbookProgress patches a Textbook's completion percentage.
type TextbookProgress struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

func (tp *TextbookProgress) Validate(validate *validator.Validate) error {
	return validate.Struct(tp)
}

// QueryFilter narrows a school's roster listing.
// Search does a case-insensitive match on Student.Name or Student.Subject.
type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
