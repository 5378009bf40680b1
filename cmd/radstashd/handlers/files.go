package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/radstash/radstash/pkg/api/types/errors"
	apimember "github.com/radstash/radstash/pkg/api/types/members"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	"github.com/radstash/radstash/pkg/domain/store"
)

// PutFileHandler uploads a file: the blob and its metadata go to the
// content store, the global record to the ledger, and the edge to the
// project. Scope query parameters (`?subject=`, `?study=`, `?series=`)
// place the file into the hierarchy; `?creator=` records the uploader.
//
// An empty body attaches an already uploaded file to the project
// without re-uploading its bytes.
func PutFileHandler(
	dbGraph kgraph.GraphInterface,
	st store.Store,
	paramProject string, paramFile string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		name := c.Param(paramFile)

		payload, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		if len(payload) == 0 {
			// share the existing file. Attach reports NotFound when no
			// upload has ever happened for the name.
			return attach(c, dbGraph, projectId, domain.EntityFile, name)
		}

		file := domain.FileInfo{
			Name:      name,
			SubjectId: c.QueryParam("subject"),
			StudyUid:  c.QueryParam("study"),
			SeriesUid: c.QueryParam("series"),
			Size:      int64(len(payload)),
			Creator:   c.QueryParam("creator"),
		}
		if err := dbGraph.RegisterFile(ctx, file); errors.Is(err, kerr.ErrMissing) {
			return apierr.BadRequest("file scope names an unregistered subject, study or series", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		if err := st.Put(ctx, store.KindFileBlob, name, payload); err != nil {
			return apierr.InternalServerError(err)
		}
		meta, err := json.Marshal(apimember.ComposeFile(file))
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := st.Put(ctx, store.KindFileMeta, name, meta); err != nil {
			return apierr.InternalServerError(err)
		}

		return attach(c, dbGraph, projectId, domain.EntityFile, name)
	}
}

// GetFileHandler serves a file's bytes. The file must be a member of
// the project; the same name resolves identically from every project
// holding an edge to it.
func GetFileHandler(
	dbGraph kgraph.GraphInterface,
	st store.Store,
	paramProject string, paramFile string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		projectId := c.Param(paramProject)
		name := c.Param(paramFile)

		projects, err := dbGraph.ProjectsOf(ctx, domain.EntityFile, name)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		member := false
		for _, p := range projects {
			if p == projectId {
				member = true
				break
			}
		}
		if !member {
			return apierr.NotFound()
		}

		payload, err := st.Get(ctx, store.KindFileBlob, name)
		if errors.Is(err, kerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.Blob(http.StatusOK, echo.MIMEOctetStream, payload)
	}
}
