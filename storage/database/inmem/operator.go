package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/operator"
)

type operatorRepository struct {
	db *DB
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(db *DB) *operatorRepository {
	return &operatorRepository{db: db}
}

func (repo *operatorRepository) CreateOperator(ctx context.Context, op operator.Operator, exec ...core.DBExecutor) (operator.Operator, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	op.ID = uuid.New().String()
	repo.db.operators[op.ID] = &op
	return op, nil
}

func (repo *operatorRepository) GetOperator(ctx context.Context, id string, exec ...core.DBExecutor) (operator.Operator, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if op, ok := repo.db.operators[id]; ok {
		return *op, nil
	}
	return operator.Operator{}, operator.ErrOperatorNotFound
}

func (repo *operatorRepository) UpdateOperator(ctx context.Context, op operator.Operator, exec ...core.DBExecutor) (operator.Operator, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.operators[op.ID]; !ok {
		return operator.Operator{}, operator.ErrOperatorNotFound
	}
	repo.db.operators[op.ID] = &op
	return op, nil
}

func (repo *operatorRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []operator.User, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.users {
		if excluded[usr.ID] {
			continue
		}
		if usr.Username == username || usr.Email == email {
			return operator.ErrUserExists
		}
	}
	return nil
}

func (repo *operatorRepository) CreateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *operatorRepository) QueryUsers(ctx context.Context, operatorID string, filter *operator.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]operator.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var users []operator.User
	for _, usr := range repo.db.users {
		if usr.OperatorID != operatorID {
			continue
		}
		if filter != nil {
			if filter.Search != "" {
				val := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(usr.Name), val) &&
					!strings.Contains(strings.ToLower(usr.Username), val) &&
					!strings.Contains(strings.ToLower(usr.Email), val) {
					continue
				}
			}
			if filter.Role != "" && usr.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && usr.Active() != *filter.IsActive {
				continue
			}
			if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
				continue
			}
			if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
				continue
			}
		}
		users = append(users, *usr)
	}

	sortUsers(users, ordering)
	return users, nil
}

func sortUsers(users []operator.User, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	ord := ordering[0]
	sort.SliceStable(users, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "username":
			less = users[i].Username < users[j].Username
		case "name":
			less = users[i].Name < users[j].Name
		default: // created_at
			less = users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}

func (repo *operatorRepository) GetUser(ctx context.Context, filter operator.GetFilter, exec ...core.DBExecutor) (operator.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return operator.User{}, operator.ErrNotFound
	}

	for _, usr := range repo.db.users {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return *usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return *usr, nil
			}
		case filter.UsernameOrEmail != nil:
			for _, val := range filter.UsernameOrEmail {
				if val != "" && (usr.Username == val || usr.Email == val) {
					return *usr, nil
				}
			}
		}
	}
	return operator.User{}, operator.ErrNotFound
}

func (repo *operatorRepository) UpdateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return operator.User{}, operator.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *operatorRepository) UpdateOrCreateUser(ctx context.Context, usr operator.User, exec ...core.DBExecutor) (operator.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo *operatorRepository) DeleteUsersByID(ctx context.Context, operatorID string, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok && usr.OperatorID == operatorID {
			delete(repo.db.users, id)
			cnt++
		}
	}
	return cnt, nil
}
