package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core/user"
)

const seedPassword = "password123"

var seedUsers = []struct {
	username string
	role     string
}{
	{username: "admin", role: user.RoleAdmin},
	{username: "secretar", role: user.RoleSecretary},
	{username: "profesor", role: user.RoleProfessor},
}

// seed creates the default accounts that do not exist yet.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	for _, su := range seedUsers {
		_, err := cli.usrSvc.Get(ctx, su.username)
		switch {
		case err == nil:
			continue
		case errors.Cause(err) != user.ErrNotFound:
			return err
		}

		if _, err = cli.usrSvc.Create(ctx, user.NewUser{
			Username: su.username,
			Password: seedPassword,
			Roles:    []string{su.role},
		}); err != nil {
			return errors.Wrapf(err, "seeding %s", su.username)
		}
		cli.logger.Warn("default account created, change its password", map[string]interface{}{
			"username": su.username,
			"password": seedPassword,
		})
	}
	return nil
}
