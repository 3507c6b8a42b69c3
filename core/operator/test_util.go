package operator

import (
	"context"

	"github.com/voyago/voyago/core"
)

type serviceMock struct {
	Service
}

// NewServiceMock returns a Service that registers operators without a
// database transaction, so tests can run on repositories that have no real
// database behind them.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.Server.PasswordResetTimeoutDelta
	return &serviceMock{
		Service: Service{
			repo: repo,
			mail: mailSvc,
			conf: conf,
		},
	}
}

func (svc *serviceMock) RegisterOperator(no NewOperator) (Operator, User, error) {
	ctx := context.Background()

	op, owner, err := newRegistration(no)
	if err != nil {
		return Operator{}, User{}, err
	}
	if op, err = svc.repo.CreateOperator(ctx, op); err != nil {
		return Operator{}, User{}, err
	}
	owner.OperatorID = op.ID
	if owner, err = svc.repo.CreateUser(ctx, owner); err != nil {
		return Operator{}, User{}, err
	}

	svc.sendWelcomeEmail(op, owner)
	return op, owner, nil
}
