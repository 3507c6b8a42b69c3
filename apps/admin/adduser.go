package main

import (
	"context"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/operator"
)

// addUser updates or creates an operator user.
func (cli *commandLine) addUser(operatorID, uname, email, pwd string, isManager bool) error {
	var usr operator.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if usr, err = cli.usrRepo.GetUser(ctx, operator.GetFilter{UsernameOrEmail: []string{uname, email}}); err != nil {
		if err != operator.ErrNotFound {
			return err
		}
		usr = operator.User{
			OperatorID: operatorID,
			Username:   uname,
			Email:      email,
			Role:       operator.RoleStaff,
		}
	}
	if isManager {
		usr.Role = operator.RoleManager
	}
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
