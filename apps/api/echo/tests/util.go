package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/jukutrack/apps/api/echo"
	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
	"github.com/trezcool/jukutrack/core/student"
	emailsvc "github.com/trezcool/jukutrack/services/email"
	logsvc "github.com/trezcool/jukutrack/services/logger"
	inmemdb "github.com/trezcool/jukutrack/storage/database/inmem"
)

var (
	conf    *core.Config
	schRepo school.Repository
	stuRepo student.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errNotFound     = httpErr{Error: "not found"}
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = &core.Config{
		TestMode:   true,
		Env:        "TEST",
		AppName:    "Jukutrack",
		SecretKey:  "s3cr3t-k3y",
		AdminEmail: mail.Address{Address: "admin@test.cd"},
		Server: core.ServerConfig{
			JWTExpirationDelta: 1 * time.Hour,
		},
	}

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	schRepo = inmemdb.NewSchoolRepository(db)
	stuRepo = inmemdb.NewStudentRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	schSvc := school.NewService(schRepo, mailSvc, conf)
	stuSvc := student.NewService(stuRepo)

	validate := validator.New()
	translator := newTranslator(t)
	core.InitValidators(validate, translator)

	// set up server
	return NewServer(
		"", /* addr */
		ServerDeps{
			Conf:       conf,
			Logger:     logger,
			SchoolSvc:  schSvc,
			StudentSvc: stuSvc,
			Validate:   validate,
			Translator: translator,
		},
	)
}

func newTranslator(t *testing.T) ut.Translator {
	t.Helper()

	lang := en.New()
	translator, ok := ut.New(lang, lang).GetTranslator(lang.Locale())
	if !ok {
		t.Fatal("newTranslator() failed")
	}
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, sch school.School) string {
	claims := GetSchoolClaims(sch, conf)
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
