package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/radstash/radstash/pkg/api/types/errors"
	apiproj "github.com/radstash/radstash/pkg/api/types/projects"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	kproj "github.com/radstash/radstash/pkg/domain/project/db"
)

func ListProjectsHandler(dbProject kproj.ProjectInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		projects, err := dbProject.List(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		found := make([]apiproj.Detail, 0, len(projects))
		for _, p := range projects {
			found = append(found, apiproj.ComposeDetail(p))
		}

		return c.JSON(http.StatusOK, resultset.Of(found))
	}
}

func GetProjectHandler(dbProject kproj.ProjectInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramKey)

		p, err := dbProject.Get(ctx, projectId)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiproj.ComposeDetail(p))
	}
}

func CreateProjectHandler(dbProject kproj.ProjectInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramKey)

		change := apiproj.Change{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&change); err != nil {
			return apierr.BadRequest("request body should be a project", err)
		}

		access, err := domain.AsProjectAccess(change.Access)
		if err != nil {
			return apierr.BadRequest(`access should be "private" or "public"`, err)
		}

		project := domain.Project{
			ProjectId:   projectId,
			Name:        change.Name,
			Description: change.Description,
			Access:      access,
			Creator:     c.Request().Header.Get("X-Radstash-User"),
		}
		if err := dbProject.Create(ctx, project); errors.Is(err, kerr.ErrConflict) {
			return apierr.Conflict("project already exists", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		created, err := dbProject.Get(ctx, projectId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiproj.ComposeDetail(created))
	}
}

func UpdateProjectHandler(dbProject kproj.ProjectInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramKey)

		change := apiproj.Change{}
		decoder := json.NewDecoder(c.Request().Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&change); err != nil {
			return apierr.BadRequest("request body should be a project", err)
		}

		access, err := domain.AsProjectAccess(change.Access)
		if err != nil {
			return apierr.BadRequest(`access should be "private" or "public"`, err)
		}

		project := domain.Project{
			ProjectId:   projectId,
			Name:        change.Name,
			Description: change.Description,
			Access:      access,
		}
		if err := dbProject.Update(ctx, project); errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		updated, err := dbProject.Get(ctx, projectId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiproj.ComposeDetail(updated))
	}
}

func DeleteProjectHandler(dbProject kproj.ProjectInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramKey)

		if err := dbProject.Delete(ctx, projectId); errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
