package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dreamlang/dreamc/server/dao"
	"github.com/google/uuid"
)

func NewCompileJobsRepository() *InMemoryCompileJobsRepository {
	return &InMemoryCompileJobsRepository{
		jobs: make(map[uuid.UUID]dao.CompileJob),
	}
}

type InMemoryCompileJobsRepository struct {
	jobs map[uuid.UUID]dao.CompileJob
}

func (r *InMemoryCompileJobsRepository) Close() error {
	return nil
}

func (r *InMemoryCompileJobsRepository) Create(ctx context.Context, job dao.CompileJob) (dao.CompileJob, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.CompileJob{}, fmt.Errorf("could not generate ID: %w", err)
	}

	job.ID = newUUID
	job.Created = time.Now()

	r.jobs[job.ID] = job
	return job, nil
}

func (r *InMemoryCompileJobsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.CompileJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return dao.CompileJob{}, dao.ErrNotFound
	}
	return job, nil
}

func (r *InMemoryCompileJobsRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]dao.CompileJob, error) {
	var all []dao.CompileJob
	for _, j := range r.jobs {
		if j.OwnerID == ownerID {
			all = append(all, j)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Created.Before(all[j].Created) })
	return all, nil
}

func (r *InMemoryCompileJobsRepository) Update(ctx context.Context, id uuid.UUID, job dao.CompileJob) (dao.CompileJob, error) {
	if _, ok := r.jobs[id]; !ok {
		return dao.CompileJob{}, dao.ErrNotFound
	}
	r.jobs[id] = job
	return job, nil
}

func (r *InMemoryCompileJobsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.CompileJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return dao.CompileJob{}, dao.ErrNotFound
	}
	delete(r.jobs, id)
	return job, nil
}
