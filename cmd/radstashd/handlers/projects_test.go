package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	httptestutil "github.com/radstash/radstash/internal/testutils/http"
	apiproj "github.com/radstash/radstash/pkg/api/types/projects"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	dbmock "github.com/radstash/radstash/pkg/domain/project/db/mock"
	"github.com/radstash/radstash/pkg/utils/cmp"
	"github.com/radstash/radstash/pkg/utils/try"

	"github.com/radstash/radstash/cmd/radstashd/handlers"
)

func TestListProjectsHandler(t *testing.T) {

	t.Run("projects from the database are wrapped in a ResultSet", func(t *testing.T) {
		created := try.To(time.Parse(time.RFC3339, "2023-04-01T12:00:00+00:00")).OrFatal(t)
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.List = func(ctx context.Context) ([]domain.Project, error) {
			return []domain.Project{
				{ProjectId: "brain", Name: "Brain", Access: domain.AccessPrivate, Creator: "alice", CreatedAt: created},
				{ProjectId: "lung", Name: "Lung", Access: domain.AccessPublic, CreatedAt: created.Add(time.Hour)},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/projects/")

		testee := handlers.ListProjectsHandler(mckdb)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		actual := resultset.Envelope[apiproj.Detail]{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.ResultSet.TotalRecords != 2 {
			t.Errorf("totalRecords %d != 2", actual.ResultSet.TotalRecords)
		}

		expected := []apiproj.Detail{
			expectedProject("brain", "Brain", "private", "alice", created),
			expectedProject("lung", "Lung", "public", "", created.Add(time.Hour)),
		}
		if !cmp.SliceEqWith(actual.ResultSet.Result, expected, func(a, b apiproj.Detail) bool { return a.Equal(&b) }) {
			t.Errorf("projects do not match. (actual, expected) = \n(%v, \n%v)", actual.ResultSet.Result, expected)
		}
	})

	t.Run("when listing fails, status code should be 500", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.List = func(ctx context.Context) ([]domain.Project, error) {
			return nil, errors.New("fake internal error")
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/projects/")

		err := handlers.ListProjectsHandler(mckdb)(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}

func expectedProject(id, name, access, creator string, createdAt time.Time) apiproj.Detail {
	return apiproj.ComposeDetail(domain.Project{
		ProjectId: id, Name: name,
		Access:  domain.ProjectAccess(access),
		Creator: creator, CreatedAt: createdAt,
	})
}

func TestGetProjectHandler(t *testing.T) {

	t.Run("when the project is missing, status code should be 404", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.Get = func(ctx context.Context, projectId string) (domain.Project, error) {
			return domain.Project{}, kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/projects/no-such-project/")
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("no-such-project")

		err := handlers.GetProjectHandler(mckdb, "projectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}

		if mckdb.Calls.Get.Times() != 1 {
			t.Errorf("Get should be called once: %d", mckdb.Calls.Get.Times())
		}
	})
}

func TestCreateProjectHandler(t *testing.T) {

	t.Run("a new project is created and echoed back", func(t *testing.T) {
		created := try.To(time.Parse(time.RFC3339, "2023-04-01T12:00:00+00:00")).OrFatal(t)
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.Create = func(ctx context.Context, p domain.Project) error {
			return nil
		}
		mckdb.Impl.Get = func(ctx context.Context, projectId string) (domain.Project, error) {
			return domain.Project{
				ProjectId: projectId, Name: "Brain Study",
				Access: domain.AccessPrivate, CreatedAt: created,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/projects/brain/",
			strings.NewReader(`{"name": "Brain Study"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		testee := handlers.CreateProjectHandler(mckdb, "projectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		if mckdb.Calls.Create.Times() != 1 {
			t.Fatalf("Create should be called once: %d", mckdb.Calls.Create.Times())
		}
		stored := mckdb.Calls.Create[0]
		if stored.ProjectId != "brain" || stored.Name != "Brain Study" || stored.Access != domain.AccessPrivate {
			t.Errorf("unexpected project passed to Create: %+v", stored)
		}

		actual := apiproj.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.ProjectId != "brain" || actual.Name != "Brain Study" {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("when the project already exists, status code should be 409", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.Create = func(ctx context.Context, p domain.Project) error {
			return kerr.ErrConflict
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/projects/brain/",
			strings.NewReader(`{"name": "Brain Study"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		err := handlers.CreateProjectHandler(mckdb, "projectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusConflict {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusConflict)
		}
	})

	t.Run("when access is unknown, status code should be 400", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/projects/brain/",
			strings.NewReader(`{"name": "Brain Study", "access": "secret"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		err := handlers.CreateProjectHandler(mckdb, "projectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
		if mckdb.Calls.Create.Times() != 0 {
			t.Errorf("Create should not be called: %d", mckdb.Calls.Create.Times())
		}
	})
}

func TestDeleteProjectHandler(t *testing.T) {

	t.Run("an existing project is deleted", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.Delete = func(ctx context.Context, projectId string) error {
			return nil
		}

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/projects/brain/")
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		testee := handlers.DeleteProjectHandler(mckdb, "projectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusNoContent)
		}
		if !cmp.SliceEq(mckdb.Calls.Delete, []struct{ ProjectId string }{{ProjectId: "brain"}}) {
			t.Errorf("Delete should be called with brain: %v", mckdb.Calls.Delete)
		}
	})

	t.Run("when the project is missing, status code should be 404", func(t *testing.T) {
		mckdb := dbmock.NewProjectInterface()
		mckdb.Impl.Delete = func(ctx context.Context, projectId string) error {
			return kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/projects/brain/")
		c.SetPath("/api/projects/:projectId/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		err := handlers.DeleteProjectHandler(mckdb, "projectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}
