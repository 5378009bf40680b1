package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/radstash/radstash/pkg/api/types/errors"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	"github.com/radstash/radstash/pkg/domain/facet"
	kfacet "github.com/radstash/radstash/pkg/domain/facet/db"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	"github.com/radstash/radstash/pkg/domain/store"
	"github.com/radstash/radstash/pkg/metrics"
)

// PostAimHandler stores an annotation document: the global record and
// project edge, the raw payload, and the searchable facet index, in
// this order. Re-posting a document replaces its payload and facets.
func PostAimHandler(
	dbGraph kgraph.GraphInterface,
	dbFacet kfacet.FacetInterface,
	st store.Store,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)

		payload, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		doc := domain.AimDocument{}
		if err := json.Unmarshal(payload, &doc); err != nil {
			return apierr.BadRequest("request body should be an annotation document", err)
		}
		aimUid := doc.AimUid()
		if aimUid == "" {
			return apierr.BadRequest("annotation document has no unique identifier", nil)
		}

		aim := domain.AimInfo{
			AimUid:    aimUid,
			SubjectId: doc.SubjectId(),
			StudyUid:  doc.StudyUid(),
			SeriesUid: doc.SeriesUid(),
			Creator:   doc.UserLoginName(),
		}
		if err := dbGraph.RegisterAim(ctx, aim); errors.Is(err, kerr.ErrMissing) {
			return apierr.BadRequest("annotation references an unregistered subject, study or series", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		if err := dbGraph.Attach(ctx, projectId, domain.EntityAim, aimUid); errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.MembershipChanges.WithLabelValues(domain.EntityAim.String(), "attach").Inc()

		if err := st.Put(ctx, store.KindAnnotation, aimUid, payload); err != nil {
			return apierr.InternalServerError(err)
		}

		projects, err := dbGraph.ProjectsOf(ctx, domain.EntityAim, aimUid)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		facets := facet.ExtractAnnotationFacets(doc, projects)
		if err := dbFacet.IndexAim(ctx, aimUid, facets); err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.AimsIndexed.Inc()
		metrics.FacetsEmitted.Add(float64(len(facets)))

		return c.JSON(http.StatusCreated, map[string]string{"aimUid": aimUid})
	}
}

func GetAimHandler(st store.Store, paramAim string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		aimUid := c.Param(paramAim)

		payload, err := st.Get(ctx, store.KindAnnotation, aimUid)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, payload)
	}
}

// FindAimsHandler locates annotations holding every `?facet=NAME:VALUE`
// given. Without facets, every indexed annotation matches.
func FindAimsHandler(dbFacet kfacet.FacetInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		facets, err := queryParamToFacets(c.QueryParams()["facet"])
		if err != nil {
			return apierr.BadRequest("each facet should be formatted as NAME:VALUE", err)
		}

		aimUids, err := dbFacet.Find(ctx, facets)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, resultset.Of(aimUids))
	}
}

func queryParamToFacets(queryParam []string) ([]domain.Facet, error) {
	facets := make([]domain.Facet, len(queryParam))
	for nth, p := range queryParam {
		var found bool
		facets[nth].Name, facets[nth].Value, found = strings.Cut(p, ":")
		if !found {
			return nil, errors.New(`"` + p + `" is not formatted as NAME:VALUE`)
		}
	}
	return facets, nil
}

// DeleteAimHandler detaches an annotation from the project. With
// `?all=true` the global record goes too: the index rows fall with it
// and the stored payload is collected afterwards. A project-only
// removal re-indexes the document so its project facets stop naming
// the removed project.
func DeleteAimHandler(
	dbGraph kgraph.GraphInterface,
	dbFacet kfacet.FacetInterface,
	dbGarbage kgarbage.GarbageInterface,
	st store.Store,
	paramProject string, paramAim string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		aimUid := c.Param(paramAim)

		scope := domain.DetachProjectOnly
		if c.QueryParam("all") == "true" {
			scope = domain.DetachEverywhere
		}

		err := dbGraph.Detach(ctx, projectId, domain.EntityAim, aimUid, scope)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if errors.Is(err, kerr.ErrConflict) {
			return apierr.Conflict("annotation is still referenced", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.MembershipChanges.WithLabelValues(domain.EntityAim.String(), "detach").Inc()

		if scope == domain.DetachEverywhere {
			if err := collectGarbage(ctx, dbGarbage, st); err != nil {
				c.Logger().Warnf("payload collection postponed: %s", err)
			}
			return c.NoContent(http.StatusNoContent)
		}

		if err := reindexAim(ctx, dbGraph, dbFacet, st, aimUid); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// reindexAim recomputes an annotation's facets from its stored payload
// and current project edges. A missing payload is fine: there is
// nothing left to index.
func reindexAim(
	ctx context.Context,
	dbGraph kgraph.GraphInterface,
	dbFacet kfacet.FacetInterface,
	st store.Store,
	aimUid string,
) error {
	payload, err := st.Get(ctx, store.KindAnnotation, aimUid)
	if errors.Is(err, kerr.ErrMissing) {
		return nil
	} else if err != nil {
		return err
	}

	doc := domain.AimDocument{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return err
	}

	projects, err := dbGraph.ProjectsOf(ctx, domain.EntityAim, aimUid)
	if err != nil {
		return err
	}

	return dbFacet.IndexAim(ctx, aimUid, facet.ExtractAnnotationFacets(doc, projects))
}
