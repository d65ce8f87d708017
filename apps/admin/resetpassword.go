package main

import (
	"context"

	"github.com/adminzone/backend/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	data := user.UpdateUser{Username: uname, Password: pwd}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}
	_, err := cli.usrSvc.Update(context.Background(), uname, data)
	return err
}
