// Package inmem provides an in-memory dao.Store implementation, suitable
// for tests and for running the compile server without a persistent
// database.
package inmem

import (
	"fmt"

	"github.com/dreamlang/dreamc/server/dao"
)

type store struct {
	users *InMemoryUsersRepository
	jobs  *InMemoryCompileJobsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users: NewUsersRepository(),
		jobs:  NewCompileJobsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Jobs() dao.CompileJobRepository {
	return s.jobs
}

func (s *store) Close() error {
	var err error

	if usersErr := s.users.Close(); usersErr != nil {
		err = usersErr
	}
	if jobsErr := s.jobs.Close(); jobsErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, jobsErr)
		} else {
			err = jobsErr
		}
	}

	return err
}
