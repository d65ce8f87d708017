package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/user"
)

// addUser creates an enabled user.User, or updates the role and password of an existing one.
func (cli *commandLine) addUser(uname, pwd, role string) error {
	ctx := context.Background()

	_, err := cli.usrSvc.Get(ctx, uname)
	switch {
	case err == nil:
		enabled := true
		data := user.UpdateUser{Username: uname, Password: pwd, Enabled: &enabled, Roles: []string{role}}
		if err = data.Validate(cli.validate); err != nil {
			return err
		}
		if _, err = cli.usrSvc.Update(ctx, uname, data); err != nil {
			return err
		}
		cli.logger.Info("user updated", map[string]interface{}{"username": uname})
		return nil

	case errors.Cause(err) != user.ErrNotFound:
		return err
	}

	data := user.NewUser{Username: uname, Password: pwd, Roles: []string{role}}
	if err = data.Validate(cli.validate); err != nil {
		return err
	}
	if _, err = cli.usrSvc.Create(ctx, data); err != nil {
		return err
	}
	cli.logger.Info("user created", map[string]interface{}{"username": uname})
	return nil
}
