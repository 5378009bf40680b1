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
	apitpl "github.com/radstash/radstash/pkg/api/types/templates"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	"github.com/radstash/radstash/pkg/domain/facet"
	kfacet "github.com/radstash/radstash/pkg/domain/facet/db"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	"github.com/radstash/radstash/pkg/domain/store"
	"github.com/radstash/radstash/pkg/metrics"
)

// PostTemplateHandler stores a template container: global record,
// project edge, raw payload, and the listing/summary index.
func PostTemplateHandler(
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

		doc := domain.TemplateDocument{}
		if err := json.Unmarshal(payload, &doc); err != nil {
			return apierr.BadRequest("request body should be a template document", err)
		}

		facets, ok := facet.ExtractTemplateFacets(doc)
		if !ok || doc.ContainerUid() == "" {
			return apierr.BadRequest("template document declares no container or no template", nil)
		}
		containerUid := doc.ContainerUid()

		tpl := domain.TemplateInfo{
			ContainerUid: containerUid,
			CodeValue:    doc.TemplateContainer.Template[0].CodeValue,
		}
		if err := dbGraph.RegisterTemplate(ctx, tpl); err != nil {
			return apierr.InternalServerError(err)
		}

		if err := dbGraph.Attach(ctx, projectId, domain.EntityTemplate, containerUid); errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.MembershipChanges.WithLabelValues(domain.EntityTemplate.String(), "attach").Inc()

		if err := st.Put(ctx, store.KindTemplate, containerUid, payload); err != nil {
			return apierr.InternalServerError(err)
		}

		if err := dbFacet.IndexTemplate(ctx, containerUid, facets); err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.TemplatesIndexed.Inc()

		return c.JSON(http.StatusCreated, map[string]string{"containerUid": containerUid})
	}
}

// PutTemplateEnableHandler toggles a template's project edge with
// `?enable=true|false`, without detaching it.
func PutTemplateEnableHandler(
	dbGraph kgraph.GraphInterface,
	paramProject string, paramTemplate string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		containerUid := c.Param(paramTemplate)

		var enabled bool
		switch c.QueryParam("enable") {
		case "true":
			enabled = true
		case "false":
			enabled = false
		default:
			return apierr.BadRequest(`query parameter "enable" should be "true" or "false"`, nil)
		}

		err := dbGraph.SetEnabled(ctx, projectId, domain.EntityTemplate, containerUid, enabled)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusOK)
	}
}

// ListTemplatesHandler lists a project's template containers. With
// `?format=summary` each entry is the container summary decorated with
// the edge's enabled flag; otherwise membership entries are returned.
func ListTemplatesHandler(
	dbGraph kgraph.GraphInterface,
	st store.Store,
	paramProject string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)

		found, err := dbGraph.ListMembers(ctx, projectId, domain.EntityTemplate, domain.AncestorFilter{})
		if err != nil {
			return apierr.InternalServerError(err)
		}

		if c.QueryParam("format") != "summary" {
			result := make([]apimember.Member, 0, len(found))
			for _, m := range found {
				result = append(result, apimember.ComposeMember(m))
			}
			return c.JSON(http.StatusOK, resultset.Of(result))
		}

		result := make([]apitpl.SummaryWithStatus, 0, len(found))
		for _, m := range found {
			payload, err := st.Get(ctx, store.KindTemplate, m.Key)
			if errors.Is(err, kerr.ErrMissing) {
				continue // registered but payload gone; skip rather than fail the listing
			} else if err != nil {
				return apierr.InternalServerError(err)
			}

			doc := domain.TemplateDocument{}
			if err := json.Unmarshal(payload, &doc); err != nil {
				return apierr.InternalServerError(err)
			}
			facets, ok := facet.ExtractTemplateFacets(doc)
			if !ok {
				continue
			}
			result = append(result, apitpl.SummaryWithStatus{
				TemplateSummary: facets.Summary[0].Summary,
				Enabled:         m.Enabled,
			})
		}

		return c.JSON(http.StatusOK, resultset.Of(result))
	}
}

// FindTemplatesHandler queries the template index by emission key:
// `?kind=` and `?code=`. `?format=summary` returns summaries,
// `?format=count` the emission count, and the default the full
// documents.
func FindTemplatesHandler(dbFacet kfacet.FacetInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		key := domain.ListingKey{
			Kind: c.QueryParam("kind"),
			Code: c.QueryParam("code"),
		}
		if key.Kind == "" {
			return apierr.BadRequest(`query parameter "kind" is required`, nil)
		}

		switch c.QueryParam("format") {
		case "summary":
			summaries, err := dbFacet.Summaries(ctx, key)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			return c.JSON(http.StatusOK, resultset.Of(summaries))
		case "count":
			count, err := dbFacet.CountListing(ctx, key)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			return c.JSON(http.StatusOK, apitpl.Count{Count: count})
		default:
			docs, err := dbFacet.Listing(ctx, key)
			if err != nil {
				return apierr.InternalServerError(err)
			}
			return c.JSON(http.StatusOK, resultset.Of(docs))
		}
	}
}

// DeleteTemplateHandler detaches a template container from the project.
// With `?all=true` the global record goes too: the listing and summary
// rows fall with it and the stored payload is collected afterwards.
func DeleteTemplateHandler(
	dbGraph kgraph.GraphInterface,
	dbGarbage kgarbage.GarbageInterface,
	st store.Store,
	paramProject string, paramTemplate string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		containerUid := c.Param(paramTemplate)

		scope := domain.DetachProjectOnly
		if c.QueryParam("all") == "true" {
			scope = domain.DetachEverywhere
		}

		err := dbGraph.Detach(ctx, projectId, domain.EntityTemplate, containerUid, scope)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if errors.Is(err, kerr.ErrConflict) {
			return apierr.Conflict("template is still referenced", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		metrics.MembershipChanges.WithLabelValues(domain.EntityTemplate.String(), "detach").Inc()

		if scope == domain.DetachEverywhere {
			if err := collectGarbage(ctx, dbGarbage, st); err != nil {
				c.Logger().Warnf("payload collection postponed: %s", err)
			}
		}

		return c.NoContent(http.StatusNoContent)
	}
}
