package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/trezcool/jukutrack/core/student"
	testutil "github.com/trezcool/jukutrack/tests"
)

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	otherSch := testutil.CreateSchool(t, schRepo, "ume", "Ume Juku", "s3cr3t")

	aiko := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")
	kenji := testutil.CreateStudent(t, stuRepo, sch.ID, "Kenji Sato", "6", "English")
	mio := testutil.CreateStudent(t, stuRepo, sch.ID, "Mio Suzuki", "6", "Math")
	testutil.CreateStudent(t, stuRepo, otherSch.ID, "Foreign Kid", "5", "Math")

	token := getToken(t, sch)
	empty := marchallList(t, []interface{}{}...)

	path := func(search, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/students?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: "/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// default ordering: grade DESC, name ASC
			name: "Get own roster", path: "/students", token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, kenji, mio, aiko),
		},
		{name: "search (unknown)", path: path("lol", ""), token: token, wantCode: http.StatusOK, wantData: empty},
		{
			name: "search by name", path: path("aiko", ""), token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, aiko),
		},
		{
			name: "search by subject", path: path("math", ""), token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, mio, aiko),
		},
		{
			name: "order by name", path: path("", "name"), token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, aiko, kenji, mio),
		},
		{
			name: "order by -name", path: path("", "-name"), token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, mio, kenji, aiko),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	token := getToken(t, sch)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "empty payload", token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":    "this field is required",
				"grade":   "this field is required",
				"subject": "this field is required",
			}),
		},
		{
			name: "success", token: token,
			body:     []byte(`{"name": "Aiko Tanaka", "grade": "5", "subject": "Math", "memo": "shy"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/students", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var got student.Student
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if got.ID == "" {
				t.Error("id not set")
			}
			if got.SchoolID != sch.ID {
				t.Errorf("school_id = %s; want %s", got.SchoolID, sch.ID)
			}
			if got.Name != "Aiko Tanaka" || got.Grade != "5" || got.Subject != "Math" || got.Memo != "shy" {
				t.Errorf("unexpected student: %+v", got)
			}
			if got.Records == nil || got.Textbooks == nil {
				t.Error("records and textbooks must be empty lists, not null")
			}
		})
	}
}

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	otherSch := testutil.CreateSchool(t, schRepo, "ume", "Ume Juku", "s3cr3t")
	stu := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")
	foreign := testutil.CreateStudent(t, stuRepo, otherSch.ID, "Foreign Kid", "5", "Math")

	token := getToken(t, sch)

	tests := []httpTest{
		{name: "Auth required", path: "/students/" + stu.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get own", path: "/students/" + stu.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, stu)},
		{
			// other schools' students are invisible, not forbidden
			name: "Get foreign", path: "/students/" + foreign.ID, token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Get unknown", path: "/students/lol", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	otherSch := testutil.CreateSchool(t, schRepo, "ume", "Ume Juku", "s3cr3t")
	stu := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")
	foreign := testutil.CreateStudent(t, stuRepo, otherSch.ID, "Foreign Kid", "5", "Math")

	token := getToken(t, sch)

	type want struct {
		name, grade, subject, memo string
	}
	tests := []httpTest{
		{
			name: "Update foreign", path: "/students/" + foreign.ID, token: token, body: []byte(`{"name": "Pwned"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "partial update keeps other fields", path: "/students/" + stu.ID, token: token,
			body: []byte(`{"grade": "6"}`), wantCode: http.StatusOK,
			extra: want{name: "Aiko Tanaka", grade: "6", subject: "Math"},
		},
		{
			name: "full update", path: "/students/" + stu.ID, token: token,
			body:     []byte(`{"name": "Aiko T.", "grade": "6", "subject": "Science", "memo": "improving"}`),
			wantCode: http.StatusOK,
			extra:    want{name: "Aiko T.", grade: "6", subject: "Science", memo: "improving"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if w, ok := tt.extra.(want); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var got student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("json.Unmarshal() failed: %v", err)
				}
				if got.Name != w.name || got.Grade != w.grade || got.Subject != w.subject || got.Memo != w.memo {
					t.Errorf("unexpected student: %+v; want %+v", got, w)
				}
				if got.ID != stu.ID || got.SchoolID != sch.ID {
					t.Error("id and school_id are immutable")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_destroy(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	otherSch := testutil.CreateSchool(t, schRepo, "ume", "Ume Juku", "s3cr3t")
	stu := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")
	foreign := testutil.CreateStudent(t, stuRepo, otherSch.ID, "Foreign Kid", "5", "Math")

	token := getToken(t, sch)

	// foreign student: 404, still there
	req, rec := newAuthRequest(http.MethodDelete, "/students/"+foreign.ID, token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

	// own student: gone
	req, rec = newAuthRequest(http.MethodDelete, "/students/"+stu.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}
	if _, err := stuRepo.GetStudentByID(context.Background(), stu.ID); err != student.ErrNotFound {
		t.Errorf("expected student to be deleted; err = %v", err)
	}
	if _, err := stuRepo.GetStudentByID(context.Background(), foreign.ID); err != nil {
		t.Errorf("foreign student must not be deleted; err = %v", err)
	}
}

func Test_studentApi_records(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	otherSch := testutil.CreateSchool(t, schRepo, "ume", "Ume Juku", "s3cr3t")
	stu := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")
	foreign := testutil.CreateStudent(t, stuRepo, otherSch.ID, "Foreign Kid", "5", "Math")

	token := getToken(t, sch)

	// create: content required
	req, rec := newAuthRequest(http.MethodPost, "/students/"+stu.ID+"/records", token, []byte(`{"teacher": "Mr. Mori"}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"content": "this field is required"}),
	}, rec)

	// create: foreign student 404
	req, rec = newAuthRequest(http.MethodPost, "/students/"+foreign.ID+"/records", token, []byte(`{"content": "lol"}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

	// create: ok; date is server-assigned
	req, rec = newAuthRequest(http.MethodPost, "/students/"+stu.ID+"/records", token,
		[]byte(`{"content": "fractions drill", "teacher": "Mr. Mori", "date": "2000-01-01T00:00:00Z"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusCreated)
	}
	var rec1 student.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &rec1); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if rec1.ID == "" {
		t.Error("id not set")
	}
	if rec1.Date.Year() == 2000 {
		t.Error("date must be server-assigned")
	}

	rec2 := testutil.AddRecord(t, stuRepo, stu.ID, "review quiz", "Ms. Abe")

	// retrieve
	req, rsp := newAuthRequest(http.MethodGet, "/students/"+stu.ID+"/records/"+rec1.ID, token)
	app.ServeHTTP(rsp, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, rec1)}, rsp)

	// listing on the student comes newest first
	req, rsp = newAuthRequest(http.MethodGet, "/students/"+stu.ID, token)
	app.ServeHTTP(rsp, req)
	var gotStu student.Student
	if err := json.Unmarshal(rsp.Body.Bytes(), &gotStu); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if len(gotStu.Records) != 2 || gotStu.Records[0].ID != rec2.ID {
		t.Errorf("records must be ordered by date desc; got %+v", gotStu.Records)
	}

	// update: content and teacher only; date immutable
	req, rsp = newAuthRequest(http.MethodPut, "/students/"+stu.ID+"/records/"+rec1.ID, token,
		[]byte(`{"content": "fractions drill (retake)", "teacher": "Mr. Mori", "date": "2000-01-01T00:00:00Z"}`))
	app.ServeHTTP(rsp, req)
	var updated student.Record
	if err := json.Unmarshal(rsp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if rsp.Code != http.StatusOK || updated.Content != "fractions drill (retake)" {
		t.Errorf("unexpected record: %+v", updated)
	}
	if !updated.Date.Equal(rec1.Date) {
		t.Error("date is immutable")
	}

	// update: unknown record
	req, rsp = newAuthRequest(http.MethodPut, "/students/"+stu.ID+"/records/lol", token, []byte(`{"content": "x"}`))
	app.ServeHTTP(rsp, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rsp)

	// delete
	req, rsp = newAuthRequest(http.MethodDelete, "/students/"+stu.ID+"/records/"+rec1.ID, token)
	app.ServeHTTP(rsp, req)
	if rsp.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rsp.Code, http.StatusNoContent)
	}
	if _, err := stuRepo.GetRecordByID(context.Background(), stu.ID, rec1.ID); err != student.ErrRecordNotFound {
		t.Errorf("expected record to be deleted; err = %v", err)
	}
}

func Test_studentApi_textbooks(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "sakura", "Sakura Juku", "s3cr3t")
	stu := testutil.CreateStudent(t, stuRepo, sch.ID, "Aiko Tanaka", "5", "Math")

	token := getToken(t, sch)

	// create: title required
	req, rec := newAuthRequest(http.MethodPost, "/students/"+stu.ID+"/textbooks", token, []byte(`{}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
	}, rec)

	// create: ok
	req, rec = newAuthRequest(http.MethodPost, "/students/"+stu.ID+"/textbooks", token,
		[]byte(`{"title": "Math Drills 5", "total_pages": 120, "current_page": 30, "progress": 25}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusCreated)
	}
	var tb student.Textbook
	if err := json.Unmarshal(rec.Body.Bytes(), &tb); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if tb.ID == "" || tb.Title != "Math Drills 5" || tb.Progress != 25 {
		t.Errorf("unexpected textbook: %+v", tb)
	}

	patchPath := "/students/" + stu.ID + "/textbooks/" + tb.ID

	tests := []httpTest{
		{
			name: "progress required", path: patchPath, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"progress": "this field is required"}),
		},
		{
			name: "progress > 100", path: patchPath, body: []byte(`{"progress": 150}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"progress": "progress must be 100 or less"}),
		},
		{
			name: "progress < 0", path: patchPath, body: []byte(`{"progress": -1}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"progress": "progress must be 0 or greater"}),
		},
		{
			name: "unknown textbook", path: "/students/" + stu.ID + "/textbooks/lol", body: []byte(`{"progress": 50}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, tt.path, token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// boundary values are accepted
	for _, progress := range []string{"0", "100"} {
		req, rec = newAuthRequest(http.MethodPatch, patchPath, token, []byte(`{"progress": `+progress+`}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	}
	var patched student.Textbook
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if patched.Progress != 100 {
		t.Errorf("progress = %d; want 100", patched.Progress)
	}

	// delete
	req, rec = newAuthRequest(http.MethodDelete, patchPath, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}
}
