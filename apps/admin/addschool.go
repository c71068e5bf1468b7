package main

import (
	"context"
	"time"

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
)

// addSchool issues a new school.School account.
func (cli *commandLine) addSchool(id, name, pwd string) error {
	ctx := context.Background()
	id = core.CleanString(id, true /* lower */)
	name = core.CleanString(name)

	if err := cli.schRepo.CheckSchoolIDUniqueness(ctx, id); err != nil {
		return err
	}

	sch := school.School{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := sch.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.schRepo.CreateSchool(ctx, sch); err != nil {
		return err
	}
	return nil
}
