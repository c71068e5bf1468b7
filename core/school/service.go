package school

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/jukutrack/core"
)

var (
	ErrNotFound     = errors.New("school not found")
	ErrSchoolExists = errors.New("a school with this ID already exists")
)

type (
	Repository interface {
		CheckSchoolIDUniqueness(ctx context.Context, id string) error
		CreateSchool(ctx context.Context, sch School) (School, error)
		QueryAllSchools(ctx context.Context) ([]School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		// DeleteSchoolsByID also deletes all students owned by each school.
		DeleteSchoolsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, id string) error
		Create(ctx context.Context, ns NewSchool) (School, error)
		QueryAll(ctx context.Context) ([]School, error)
		GetByID(ctx context.Context, id string) (School, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, id string) error {
	if err := svc.repo.CheckSchoolIDUniqueness(ctx, id); err != nil {
		if errors.Cause(err) == ErrSchoolExists {
			return core.NewValidationError(err, core.FieldError{Field: "school_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewSchool) (School, error) {
	sch := School{
		ID:        ns.ID,
		Name:      ns.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := sch.SetPassword(ns.Password); err != nil {
		return School{}, errors.Wrap(err, "hashing password")
	}

	sch, err := svc.repo.CreateSchool(ctx, sch)
	if err != nil {
		return School{}, errors.Wrap(err, "creating school")
	}

	svc.sendAccountIssuedEmail(sch)
	return sch, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, core.CleanString(id, true /* lower */))
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSchoolsByID(ctx, ids...)
}

// sendAccountIssuedEmail notifies the operator that a new school account
// exists. Password is never included.
func (svc *service) sendAccountIssuedEmail(sch School) {
	if svc.mailSvc == nil || svc.conf.AdminEmail.Address == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{svc.conf.AdminEmail},
		Subject: "New school account issued",
		BodyStr: fmt.Sprintf("School account %q (%s) has been issued.", sch.Name, sch.ID),
	})
}
