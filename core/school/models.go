package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/jukutrack/core"
)

// School is a tenant account representing one tutoring business; it is the
// isolation boundary for all student data.
type School struct {
	ID           string    `json:"school_id"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (s *School) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd against the stored digest in constant time.
func (s *School) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

// NewSchool contains information needed to issue a new School account.
type NewSchool struct {
	ID       string `json:"school_id" validate:"required,alphanum_"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (ns *NewSchool) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	ns.ID = core.CleanString(ns.ID, true /* lower */)
	ns.Name = core.CleanString(ns.Name)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.ID)
}
