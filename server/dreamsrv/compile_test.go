package dreamsrv

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamlang/dreamc/server/dao/inmem"
	"github.com/dreamlang/dreamc/server/serr"
)

func newTestService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func Test_Compile_sourceOverMaxSourceBytesIsRejectedWithoutCreatingAJob(t *testing.T) {
	svc := newTestService()
	owner, err := uuid.NewRandom()
	require.NoError(t, err)

	oversized := strings.Repeat("a", MaxSourceBytes+1)

	_, err = svc.Compile(context.Background(), owner, oversized)
	require.Error(t, err)
	assert.ErrorIs(t, err, serr.ErrSourceTooLarge)

	jobs, err := svc.ListJobsForUser(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, jobs, "an oversized submission must never be persisted as a job")
}

func Test_Compile_wellFormedSourceReachesEmittedStage(t *testing.T) {
	svc := newTestService()
	owner, err := uuid.NewRandom()
	require.NoError(t, err)

	job, err := svc.Compile(context.Background(), owner, "fn main() -> int { return 0; }")
	require.NoError(t, err)
	assert.Equal(t, "emitted", job.Stage.String())
	assert.Empty(t, job.Diagnostics)
	assert.NotEmpty(t, job.IR)
}

func Test_Compile_syntaxErrorStopsAtParsedFailureStage(t *testing.T) {
	svc := newTestService()
	owner, err := uuid.NewRandom()
	require.NoError(t, err)

	job, err := svc.Compile(context.Background(), owner, "fn main() -> int { return }")
	require.NoError(t, err)
	assert.Equal(t, "failed", job.Stage.String())
	assert.NotEmpty(t, job.Diagnostics)
}
