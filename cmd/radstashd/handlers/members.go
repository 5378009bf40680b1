package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/radstash/radstash/pkg/api/types/errors"
	apimember "github.com/radstash/radstash/pkg/api/types/members"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	"github.com/radstash/radstash/pkg/domain/archive"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	"github.com/radstash/radstash/pkg/domain/store"
	"github.com/radstash/radstash/pkg/metrics"
)

// PutSubjectHandler registers a subject's global record and attaches it
// to the project. When an archive is configured, unknown subjects are
// rejected before anything is written.
func PutSubjectHandler(
	dbGraph kgraph.GraphInterface,
	arch archive.Archive,
	paramProject string, paramSubject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		subjectId := c.Param(paramSubject)

		body := apimember.Subject{}
		if err := bindOptionalBody(c, &body); err != nil {
			return apierr.BadRequest("request body should be a subject", err)
		}

		if arch != nil {
			known, err := arch.SubjectExists(ctx, subjectId)
			if errors.Is(err, kerr.ErrUnavailable) {
				return apierr.ServiceUnavailable("imaging archive is unreachable. retry later", err)
			} else if err != nil {
				return apierr.InternalServerError(err)
			}
			if !known {
				return apierr.BadRequest("subject is not known to the imaging archive", nil)
			}
		}

		subject := domain.Subject{SubjectId: subjectId, Name: body.Name}
		if err := dbGraph.RegisterSubject(ctx, subject); err != nil {
			return apierr.InternalServerError(err)
		}

		return attach(c, dbGraph, projectId, domain.EntitySubject, subjectId)
	}
}

func PutStudyHandler(
	dbGraph kgraph.GraphInterface,
	arch archive.Archive,
	paramProject string, paramSubject string, paramStudy string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		subjectId := c.Param(paramSubject)
		studyUid := c.Param(paramStudy)

		if arch != nil {
			known, err := arch.StudyExists(ctx, studyUid)
			if errors.Is(err, kerr.ErrUnavailable) {
				return apierr.ServiceUnavailable("imaging archive is unreachable. retry later", err)
			} else if err != nil {
				return apierr.InternalServerError(err)
			}
			if !known {
				return apierr.BadRequest("study is not known to the imaging archive", nil)
			}
		}

		study := domain.Study{StudyUid: studyUid, SubjectId: subjectId}
		if err := dbGraph.RegisterStudy(ctx, study); errors.Is(err, kerr.ErrMissing) {
			return apierr.BadRequest("subject is not registered", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return attach(c, dbGraph, projectId, domain.EntityStudy, studyUid)
	}
}

func PutSeriesHandler(
	dbGraph kgraph.GraphInterface,
	arch archive.Archive,
	paramProject string, paramStudy string, paramSeries string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		studyUid := c.Param(paramStudy)
		seriesUid := c.Param(paramSeries)

		if arch != nil {
			known, err := arch.SeriesExists(ctx, studyUid, seriesUid)
			if errors.Is(err, kerr.ErrUnavailable) {
				return apierr.ServiceUnavailable("imaging archive is unreachable. retry later", err)
			} else if err != nil {
				return apierr.InternalServerError(err)
			}
			if !known {
				return apierr.BadRequest("series is not known to the imaging archive", nil)
			}
		}

		series := domain.Series{SeriesUid: seriesUid, StudyUid: studyUid}
		if err := dbGraph.RegisterSeries(ctx, series); errors.Is(err, kerr.ErrMissing) {
			return apierr.BadRequest("study is not registered", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return attach(c, dbGraph, projectId, domain.EntitySeries, seriesUid)
	}
}

func PutPluginHandler(
	dbGraph kgraph.GraphInterface,
	paramProject string, paramPlugin string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		pluginId := c.Param(paramPlugin)

		body := apimember.Plugin{}
		if err := bindOptionalBody(c, &body); err != nil {
			return apierr.BadRequest("request body should be a plugin record", err)
		}

		plugin := domain.Plugin{PluginId: pluginId, Name: body.Name, Image: body.Image}
		if err := dbGraph.RegisterPlugin(ctx, plugin); err != nil {
			return apierr.InternalServerError(err)
		}

		return attach(c, dbGraph, projectId, domain.EntityPlugin, pluginId)
	}
}

// ListMembersHandler lists a project's members of one entity type. On
// nested routes the bound ancestor params narrow the listing to the
// hierarchy below them.
func ListMembersHandler(
	dbGraph kgraph.GraphInterface,
	entityType domain.EntityType,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)

		filter := domain.AncestorFilter{
			SubjectId: c.Param("subjectId"),
			StudyUid:  c.Param("studyUid"),
			SeriesUid: c.Param("seriesUid"),
		}

		found, err := dbGraph.ListMembers(ctx, projectId, entityType, filter)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		result := make([]apimember.Member, 0, len(found))
		for _, m := range found {
			result = append(result, apimember.ComposeMember(m))
		}

		return c.JSON(http.StatusOK, resultset.Of(result))
	}
}

// DetachHandler removes a member from the project; `?all=true` removes
// the global record and every project's edges instead, and then
// collects the stored payloads of everything the cascade dropped.
func DetachHandler(
	dbGraph kgraph.GraphInterface,
	dbGarbage kgarbage.GarbageInterface,
	st store.Store,
	entityType domain.EntityType,
	paramProject string, paramKey string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		key := c.Param(paramKey)

		scope := domain.DetachProjectOnly
		if c.QueryParam("all") == "true" {
			scope = domain.DetachEverywhere
		}

		err := dbGraph.Detach(ctx, projectId, entityType, key, scope)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if errors.Is(err, kerr.ErrConflict) {
			return apierr.Conflict("entity is still referenced", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.MembershipChanges.WithLabelValues(entityType.String(), "detach").Inc()

		if scope == domain.DetachEverywhere {
			// the edges are gone already; a collection failure leaves
			// the keys queued for the next one.
			if err := collectGarbage(ctx, dbGarbage, st); err != nil {
				c.Logger().Warnf("payload collection postponed: %s", err)
			}
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func attach(
	c echo.Context,
	dbGraph kgraph.GraphInterface,
	projectId string, entityType domain.EntityType, key string,
) error {
	ctx := c.Request().Context()

	err := dbGraph.Attach(ctx, projectId, entityType, key)
	if errors.Is(err, kerr.ErrMissing) {
		return apierr.NotFound()
	} else if err != nil {
		return apierr.InternalServerError(err)
	}
	metrics.MembershipChanges.WithLabelValues(entityType.String(), "attach").Inc()

	return c.NoContent(http.StatusCreated)
}

// bindOptionalBody decodes the request body into dest, tolerating an
// empty body. Unknown fields are rejected.
func bindOptionalBody(c echo.Context, dest any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
