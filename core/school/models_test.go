package school

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/jukutrack/core"
)

type stubService struct {
	ServiceInterface
	uniquenessErr error
}

func (svc stubService) CheckUniqueness(context.Context, string) error { return svc.uniquenessErr }

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()

	lang := en.New()
	translator, ok := ut.New(lang, lang).GetTranslator(lang.Locale())
	if !ok {
		t.Fatal("newValidate() failed to get translator")
	}
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func TestSchool_password(t *testing.T) {
	var sch School
	if err := sch.SetPassword("s3cr3t"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if len(sch.PasswordHash) == 0 {
		t.Fatal("PasswordHash not set")
	}
	if sch.PasswordHash[0] == 's' {
		t.Error("password must not be stored in clear")
	}
	if err := sch.CheckPassword("s3cr3t"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := sch.CheckPassword("lol"); err == nil {
		t.Error("CheckPassword() must reject a wrong password")
	}
}

func TestNewSchool_Validate(t *testing.T) {
	validate := newValidate(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		ns            NewSchool
		uniquenessErr error
		wantErr       bool
		wantID        string
	}{
		{name: "empty", ns: NewSchool{}, wantErr: true},
		{name: "bad slug", ns: NewSchool{ID: "na no!", Name: "Nano", Password: "pwd"}, wantErr: true},
		{
			name: "duplicate ID", ns: NewSchool{ID: "sakura", Name: "Sakura", Password: "pwd"},
			uniquenessErr: core.NewValidationError(ErrSchoolExists), wantErr: true,
		},
		{name: "ID is cleaned and lowered", ns: NewSchool{ID: "  SaKuRa_1 ", Name: "Sakura", Password: "pwd"}, wantID: "sakura_1"},
		{name: "ok", ns: NewSchool{ID: "sakura", Name: "Sakura", Password: "pwd"}, wantID: "sakura"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(ctx, validate, stubService{uniquenessErr: tt.uniquenessErr})
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantID != "" && tt.ns.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", tt.ns.ID, tt.wantID)
			}
		})
	}
}
