package inmem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamlang/dreamc/server/dao"
)

func Test_UsersRepository_createAndFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	created, err := repo.Create(ctx, dao.User{Username: "alice", Password: "hashed", Role: dao.Normal})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, created.ID)
	assert.False(t, created.Created.IsZero())
	assert.False(t, created.LastLogoutTime.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func Test_UsersRepository_duplicateUsernameIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	_, err := repo.Create(ctx, dao.User{Username: "bob", Password: "x"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.User{Username: "bob", Password: "y"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func Test_UsersRepository_getMissingUserReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	randomID, err := uuid.NewRandom()
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, randomID)
	assert.ErrorIs(t, err, dao.ErrNotFound)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_update(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	created, err := repo.Create(ctx, dao.User{Username: "carol", Password: "x"})
	require.NoError(t, err)

	created.Role = dao.Admin
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, dao.Admin, updated.Role)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, dao.Admin, fetched.Role)
}

func Test_UsersRepository_updateMissingUserReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	randomID, err := uuid.NewRandom()
	require.NoError(t, err)

	_, err = repo.Update(ctx, randomID, dao.User{Username: "ghost"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_deleteRemovesBothIndexes(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	created, err := repo.Create(ctx, dao.User{Username: "dave", Password: "x"})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)

	_, err = repo.GetByUsername(ctx, "dave")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_getAllIsSortedByID(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	for _, name := range []string{"erin", "frank", "grace"} {
		_, err := repo.Create(ctx, dao.User{Username: name, Password: "x"})
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].ID.String(), all[i].ID.String())
	}
}

func Test_JobsRepository_createAndFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCompileJobsRepository()

	owner, err := uuid.NewRandom()
	require.NoError(t, err)

	created, err := repo.Create(ctx, dao.CompileJob{OwnerID: owner, Source: "fn main() -> int { return 0; }", Stage: dao.StageQueued})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, created.ID)
	assert.False(t, created.Created.IsZero())

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, fetched.OwnerID)
}

func Test_JobsRepository_getAllByOwnerFiltersAndOrdersByCreated(t *testing.T) {
	ctx := context.Background()
	repo := NewCompileJobsRepository()

	owner, err := uuid.NewRandom()
	require.NoError(t, err)
	other, err := uuid.NewRandom()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, dao.CompileJob{OwnerID: owner, Source: "x"})
		require.NoError(t, err)
	}
	_, err = repo.Create(ctx, dao.CompileJob{OwnerID: other, Source: "y"})
	require.NoError(t, err)

	jobs, err := repo.GetAllByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	for _, j := range jobs {
		assert.Equal(t, owner, j.OwnerID)
	}
	for i := 1; i < len(jobs); i++ {
		assert.False(t, jobs[i].Created.Before(jobs[i-1].Created))
	}
}

func Test_JobsRepository_updateMissingJobReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewCompileJobsRepository()

	randomID, err := uuid.NewRandom()
	require.NoError(t, err)

	_, err = repo.Update(ctx, randomID, dao.CompileJob{})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_JobsRepository_delete(t *testing.T) {
	ctx := context.Background()
	repo := NewCompileJobsRepository()

	owner, err := uuid.NewRandom()
	require.NoError(t, err)

	created, err := repo.Create(ctx, dao.CompileJob{OwnerID: owner})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_Store_exposesUsersAndJobsRepositories(t *testing.T) {
	store := NewDatastore()
	defer store.Close()

	assert.NotNil(t, store.Users())
	assert.NotNil(t, store.Jobs())
}
