package dreamsrv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dreamlang/dreamc/internal/irgen"
	"github.com/dreamlang/dreamc/internal/lexer"
	"github.com/dreamlang/dreamc/internal/parser"
	"github.com/dreamlang/dreamc/internal/semantic"
	"github.com/dreamlang/dreamc/server/dao"
	"github.com/dreamlang/dreamc/server/serr"
	"github.com/google/uuid"
)

// MaxSourceBytes is the largest source submission Compile will accept.
// Anything over this is rejected with serr.ErrSourceTooLarge before it ever
// reaches the lexer, so a pathological submission can't tie up a compile
// job's worth of DB writes just to get rejected.
const MaxSourceBytes = 1 << 20 // 1 MiB

// Compile runs source through the full lexer/parser/semantic/irgen pipeline
// on behalf of owner and persists the outcome as a dao.CompileJob, regardless
// of whether the pipeline succeeded or failed partway through. The returned
// job's Stage records how far the source got and Diagnostics holds every
// syntax and semantic error collected along the way. Submissions over
// MaxSourceBytes are rejected outright and never become a job.
func (svc Service) Compile(ctx context.Context, ownerID uuid.UUID, source string) (dao.CompileJob, error) {
	if len(source) > MaxSourceBytes {
		return dao.CompileJob{}, serr.New(
			fmt.Sprintf("source is %d bytes, maximum accepted is %d", len(source), MaxSourceBytes),
			serr.ErrSourceTooLarge,
		)
	}

	job := dao.CompileJob{
		OwnerID: ownerID,
		Source:  source,
		Stage:   dao.StageQueued,
	}

	tokens := lexer.FilterSignificant(lexer.Scan(source))
	job.Stage = dao.StageLexed

	prog, synErrs := parser.Parse(tokens)
	for _, e := range synErrs {
		job.Diagnostics = append(job.Diagnostics, e.Error())
	}
	if len(synErrs) > 0 {
		job.Stage = dao.StageFailed
		return svc.DB.Jobs().Create(ctx, job)
	}
	job.Stage = dao.StageParsed

	result := semantic.Analyze(prog)
	for _, e := range result.Errors {
		job.Diagnostics = append(job.Diagnostics, e.Error())
	}
	if len(result.Errors) > 0 {
		job.Stage = dao.StageFailed
		return svc.DB.Jobs().Create(ctx, job)
	}
	job.Stage = dao.StageAnalyzed

	ir, err := irgen.Emit(prog)
	if err != nil {
		job.Diagnostics = append(job.Diagnostics, err.Error())
		job.Stage = dao.StageFailed
		job.IR = ir
		return svc.DB.Jobs().Create(ctx, job)
	}

	job.IR = ir
	job.Stage = dao.StageEmitted

	created, err := svc.DB.Jobs().Create(ctx, job)
	if err != nil {
		return dao.CompileJob{}, serr.WrapDB("could not save compile job", err)
	}
	return created, nil
}

// GetJob returns the compile job with the given ID, as long as it is owned
// by requester or requester is an admin.
func (svc Service) GetJob(ctx context.Context, requester dao.User, id uuid.UUID) (dao.CompileJob, error) {
	job, err := svc.DB.Jobs().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.CompileJob{}, serr.ErrNotFound
		}
		return dao.CompileJob{}, serr.WrapDB("could not get compile job", err)
	}

	if job.OwnerID != requester.ID && requester.Role != dao.Admin {
		return dao.CompileJob{}, serr.New(fmt.Sprintf("job %s does not belong to you", id), serr.ErrPermissions)
	}

	return job, nil
}

// ListJobsForUser returns every compile job owned by ownerID, ordered by
// creation time.
func (svc Service) ListJobsForUser(ctx context.Context, ownerID uuid.UUID) ([]dao.CompileJob, error) {
	jobs, err := svc.DB.Jobs().GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, serr.WrapDB("could not list compile jobs", err)
	}
	return jobs, nil
}
