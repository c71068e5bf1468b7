package main

import (
	"context"

	"github.com/trezcool/jukutrack/core"
)

func (cli *commandLine) resetPassword(id, pwd string) error {
	ctx := context.Background()
	sch, err := cli.schRepo.GetSchoolByID(ctx, core.CleanString(id, true /* lower */))
	if err != nil {
		return err
	}
	if err := sch.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.schRepo.UpdateSchool(ctx, sch); err != nil {
		return err
	}
	return nil
}
