package api

import (
	"errors"
	"net/http"

	"github.com/dreamlang/dreamc/server/dao"
	"github.com/dreamlang/dreamc/server/middle"
	"github.com/dreamlang/dreamc/server/result"
	"github.com/dreamlang/dreamc/server/serr"
)

type CreateJobRequest struct {
	Source string `json:"source"`
}

type JobResponse struct {
	ID          string   `json:"id"`
	Stage       string   `json:"stage"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	IR          string   `json:"ir,omitempty"`
}

func jobToResponse(j dao.CompileJob) JobResponse {
	return JobResponse{ID: j.ID.String(), Stage: j.Stage.String(), Diagnostics: j.Diagnostics, IR: j.IR}
}

// HTTPCreateJob submits Dream source for compilation and returns the
// resulting compile job, including any diagnostics and, on success, the
// emitted LLVM IR.
func (api API) HTTPCreateJob() http.HandlerFunc {
	return api.Endpoint(api.epCreateJob)
}

func (api API) epCreateJob(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	createData := CreateJobRequest{}
	if err := parseJSON(req, &createData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createData.Source == "" {
		return result.BadRequest("source: property is empty or missing from request", "empty source")
	}

	job, err := api.Backend.Compile(req.Context(), user.ID, createData.Source)
	if err != nil {
		if errors.Is(err, serr.ErrSourceTooLarge) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(jobToResponse(job), "compile job '%s' for user '%s' reached stage %s", job.ID, user.Username, job.Stage)
}

// HTTPGetJob retrieves a single compile job by ID.
func (api API) HTTPGetJob() http.HandlerFunc {
	return api.Endpoint(api.epGetJob)
}

func (api API) epGetJob(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	job, err := api.Backend.GetJob(req.Context(), user, id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		if errors.Is(err, serr.ErrPermissions) {
			return result.Forbidden(err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(jobToResponse(job), "retrieved compile job '%s'", job.ID)
}

// HTTPGetJobs lists every compile job owned by the logged-in user.
func (api API) HTTPGetJobs() http.HandlerFunc {
	return api.Endpoint(api.epGetJobs)
}

func (api API) epGetJobs(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	jobs, err := api.Backend.ListJobsForUser(req.Context(), user.ID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]JobResponse, len(jobs))
	for i := range jobs {
		resp[i] = jobToResponse(jobs[i])
	}

	return result.OK(resp, "listed %d compile jobs for user '%s'", len(resp), user.Username)
}
