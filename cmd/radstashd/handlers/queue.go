package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	apierr "github.com/radstash/radstash/pkg/api/types/errors"
	apiqueue "github.com/radstash/radstash/pkg/api/types/queue"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	kqueue "github.com/radstash/radstash/pkg/domain/plugin/db"
	"github.com/radstash/radstash/pkg/metrics"
)

func EnqueueHandler(dbQueue kqueue.QueueInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		submission := apiqueue.Submission{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&submission); err != nil {
			return apierr.BadRequest("request body should be a job submission", err)
		}

		job, err := dbQueue.Enqueue(ctx, submission.AsJob())
		if errors.Is(err, kerr.ErrInvalid) {
			return apierr.BadRequest("aimUid, containerId and containerName are required", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.JobsEnqueued.Inc()

		return c.JSON(http.StatusCreated, apiqueue.ComposeDetail(job))
	}
}

func GetJobHandler(dbQueue kqueue.QueueInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("job id should be an integer", err)
		}

		job, err := dbQueue.Get(ctx, id)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiqueue.ComposeDetail(job))
	}
}

// FindJobsHandler lists jobs, oldest first. `?project=`, `?plugin=` and
// `?status=` repeatable query parameters narrow the listing.
func FindJobsHandler(dbQueue kqueue.QueueInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		params := c.QueryParams()

		query := domain.JobFindQuery{
			ProjectId: params["project"],
			PluginId:  params["plugin"],
		}
		for _, s := range params["status"] {
			status, err := domain.AsJobStatus(s)
			if err != nil {
				return apierr.BadRequest("unknown job status", err)
			}
			query.Status = append(query.Status, status)
		}

		jobs, err := dbQueue.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found := make([]apiqueue.Detail, 0, len(jobs))
		for _, j := range jobs {
			found = append(found, apiqueue.ComposeDetail(j))
		}

		return c.JSON(http.StatusOK, resultset.Of(found))
	}
}

// PutJobStatusHandler moves a job along queued -> running -> terminal.
// Terminal jobs reject any transition with 409.
func PutJobStatusHandler(dbQueue kqueue.QueueInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest("job id should be an integer", err)
		}

		change := apiqueue.StatusChange{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&change); err != nil {
			return apierr.BadRequest("request body should be a status change", err)
		}

		next, err := domain.AsJobStatus(change.Status)
		if err != nil {
			return apierr.BadRequest("unknown job status", err)
		}

		err = dbQueue.ChangeStatus(ctx, id, next)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if errors.Is(err, domain.ErrInvalidJobStateChanging) {
			return apierr.Conflict("job does not accept the transition", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.JobTransitions.WithLabelValues(next.String()).Inc()

		job, err := dbQueue.Get(ctx, id)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiqueue.ComposeDetail(job))
	}
}
