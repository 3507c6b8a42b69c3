package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/voyago/voyago/core/operator"
)

// CreateOperator persists a tenant directly through the repository.
func CreateOperator(t *testing.T, repo operator.Repository, name, companyName, email string) operator.Operator {
	now := time.Now().UTC()
	op := operator.Operator{
		Name:                 name,
		CompanyName:          companyName,
		Email:                email,
		SubscriptionPlan:     operator.PlanStarter,
		SubscriptionStatus:   operator.SubscriptionTrial,
		SubscriptionEndDate:  now.AddDate(0, 1, 0),
		AIDocumentProcessing: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	op, err := repo.CreateOperator(context.Background(), op)
	if err != nil {
		t.Fatalf("CreateOperator() failed: %v", err)
	}
	return op
}

// CreateUser persists an account user directly through the repository.
func CreateUser(
	t *testing.T,
	repo operator.Repository,
	operatorID, name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) operator.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := operator.User{
		OperatorID: operatorID,
		Name:       name,
		Username:   uname,
		Email:      email,
		Role:       role,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
