package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	httptestutil "github.com/radstash/radstash/internal/testutils/http"
	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	facetmock "github.com/radstash/radstash/pkg/domain/facet/db/mock"
	garbagemock "github.com/radstash/radstash/pkg/domain/garbage/db/mock"
	graphmock "github.com/radstash/radstash/pkg/domain/graph/db/mock"
	"github.com/radstash/radstash/pkg/domain/store"
	"github.com/radstash/radstash/pkg/domain/store/memory"
	"github.com/radstash/radstash/pkg/utils/cmp"
	"github.com/radstash/radstash/pkg/utils/try"

	"github.com/radstash/radstash/cmd/radstashd/handlers"
)

const aimDocBody = `{
	"ImageAnnotationCollection": {
		"uniqueIdentifier": {"root": "aim-uid-1"},
		"person": {"name": {"value": "DOE^JOHN"}, "id": {"value": "patient-1"}},
		"user": {"loginName": {"value": "alice"}},
		"imageAnnotations": {
			"ImageAnnotation": [
				{
					"name": {"value": "Lesion 1~baseline"},
					"imageReferenceEntityCollection": {
						"ImageReferenceEntity": [
							{
								"imageStudy": {
									"instanceUid": {"root": "1.2.3"},
									"imageSeries": {"instanceUid": {"root": "1.2.3.4"}}
								}
							}
						]
					}
				}
			]
		}
	}
}`

func TestPostAimHandler(t *testing.T) {

	t.Run("an annotation is registered, stored and indexed", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterAim = func(ctx context.Context, aim domain.AimInfo) error { return nil }
		mckGraph.Impl.Attach = func(ctx context.Context, project string, et domain.EntityType, key string) error {
			return nil
		}
		mckGraph.Impl.ProjectsOf = func(ctx context.Context, et domain.EntityType, key string) ([]string, error) {
			return []string{"brain", "shared"}, nil
		}
		mckFacet := facetmock.NewFacetInterface()
		mckFacet.Impl.IndexAim = func(ctx context.Context, aimUid string, facets []domain.Facet) error {
			return nil
		}
		st := memory.New()

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/projects/brain/aims/",
			strings.NewReader(aimDocBody),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/aims/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		testee := handlers.PostAimHandler(mckGraph, mckFacet, st, "projectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		if !cmp.SliceEq(mckGraph.Calls.RegisterAim, []domain.AimInfo{
			{
				AimUid:    "aim-uid-1",
				SubjectId: "patient-1",
				StudyUid:  "1.2.3",
				SeriesUid: "1.2.3.4",
				Creator:   "alice",
			},
		}) {
			t.Errorf("unexpected RegisterAim calls: %+v", mckGraph.Calls.RegisterAim)
		}

		stored := try.To(st.Get(context.Background(), store.KindAnnotation, "aim-uid-1")).OrFatal(t)
		if !bytes.Equal(stored, []byte(aimDocBody)) {
			t.Errorf("stored payload does not match the request body")
		}

		if mckFacet.Calls.IndexAim.Times() != 1 {
			t.Fatalf("IndexAim should be called once: %d", mckFacet.Calls.IndexAim.Times())
		}
		indexed := mckFacet.Calls.IndexAim[0]
		if indexed.AimUid != "aim-uid-1" {
			t.Errorf("unexpected indexed aim uid: %s", indexed.AimUid)
		}
		for _, want := range []domain.Facet{
			{Name: domain.FacetProject, Value: "brain"},
			{Name: domain.FacetProject, Value: "shared"},
			{Name: domain.FacetPatientId, Value: "patient-1"},
			{Name: domain.FacetUser, Value: "alice"},
			{Name: domain.FacetName, Value: "Lesion 1"},
			{Name: domain.FacetStudyUid, Value: "1.2.3"},
			{Name: domain.FacetSeriesUid, Value: "1.2.3.4"},
			{Name: domain.FacetDefault, Value: "Lesion 1"},
		} {
			found := false
			for _, f := range indexed.Facets {
				if f == want {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("facet %v should be indexed. facets = %v", want, indexed.Facets)
			}
		}
	})

	t.Run("a document without unique identifier is rejected with 400", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckFacet := facetmock.NewFacetInterface()
		st := memory.New()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/projects/brain/aims/",
			strings.NewReader(`{"ImageAnnotationCollection": {}}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/aims/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		err := handlers.PostAimHandler(mckGraph, mckFacet, st, "projectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
		if mckGraph.Calls.RegisterAim.Times() != 0 {
			t.Errorf("RegisterAim should not be called: %d", mckGraph.Calls.RegisterAim.Times())
		}
	})
}

func TestGetAimHandler(t *testing.T) {

	t.Run("the stored payload is returned verbatim", func(t *testing.T) {
		st := memory.New()
		if err := st.Put(context.Background(), store.KindAnnotation, "aim-uid-1", []byte(aimDocBody)); err != nil {
			t.Fatal(err)
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/aims/aim-uid-1/")
		c.SetPath("/api/aims/:aimUid/")
		c.SetParamNames("aimUid")
		c.SetParamValues("aim-uid-1")

		testee := handlers.GetAimHandler(st, "aimUid")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}
		if !bytes.Equal(respRec.Body.Bytes(), []byte(aimDocBody)) {
			t.Errorf("response body does not match the stored payload")
		}
	})

	t.Run("when no payload is stored, status code should be 404", func(t *testing.T) {
		st := memory.New()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/aims/no-such-aim/")
		c.SetPath("/api/aims/:aimUid/")
		c.SetParamNames("aimUid")
		c.SetParamValues("no-such-aim")

		err := handlers.GetAimHandler(st, "aimUid")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}

func TestFindAimsHandler(t *testing.T) {

	t.Run("facet query parameters are parsed and passed through", func(t *testing.T) {
		mckFacet := facetmock.NewFacetInterface()
		mckFacet.Impl.Find = func(ctx context.Context, facets []domain.Facet) ([]string, error) {
			return []string{"aim-1", "aim-2"}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/aims/?facet=modality:MR&facet=project:brain")

		testee := handlers.FindAimsHandler(mckFacet)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		if mckFacet.Calls.Find.Times() != 1 {
			t.Fatalf("Find should be called once: %d", mckFacet.Calls.Find.Times())
		}
		if !cmp.SliceEq(mckFacet.Calls.Find[0].Facets, []domain.Facet{
			{Name: "modality", Value: "MR"},
			{Name: "project", Value: "brain"},
		}) {
			t.Errorf("unexpected Find facets: %+v", mckFacet.Calls.Find[0].Facets)
		}
	})

	t.Run("a facet without colon is rejected with 400", func(t *testing.T) {
		mckFacet := facetmock.NewFacetInterface()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/aims/?facet=modalityMR")

		err := handlers.FindAimsHandler(mckFacet)(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
	})
}

func TestDeleteAimHandler(t *testing.T) {

	t.Run("with ?all=true, the queued payload is collected", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.Detach = func(
			ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
		) error {
			return nil
		}
		mckFacet := facetmock.NewFacetInterface()
		mckGarbage := garbagemock.NewGarbageInterface()
		queued := []domain.Garbage{{Kind: "annotation", Key: "aim-uid-1"}}
		mckGarbage.Impl.Pop = func(ctx context.Context, callback func(domain.Garbage) error) (bool, error) {
			if len(queued) == 0 {
				return false, nil
			}
			item := queued[0]
			if err := callback(item); err != nil {
				return false, err
			}
			queued = queued[1:]
			return true, nil
		}
		st := memory.New()
		if err := st.Put(context.Background(), store.KindAnnotation, "aim-uid-1", []byte(aimDocBody)); err != nil {
			t.Fatal(err)
		}

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/projects/brain/aims/aim-uid-1/?all=true")
		c.SetPath("/api/projects/:projectId/aims/:aimUid/")
		c.SetParamNames("projectId", "aimUid")
		c.SetParamValues("brain", "aim-uid-1")

		testee := handlers.DeleteAimHandler(mckGraph, mckFacet, mckGarbage, st, "projectId", "aimUid")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusNoContent)
		}
		if mckGarbage.Calls.Pop.Times() != 2 {
			t.Errorf("Pop should be called until the queue drains: %d", mckGarbage.Calls.Pop.Times())
		}
		if _, err := st.Get(context.Background(), store.KindAnnotation, "aim-uid-1"); !errors.Is(err, kerr.ErrMissing) {
			t.Errorf("the payload should be removed: %v", err)
		}
		if mckFacet.Calls.IndexAim.Times() != 0 {
			t.Errorf("IndexAim should not be called: %d", mckFacet.Calls.IndexAim.Times())
		}
	})

	t.Run("project-only removal re-indexes without the removed project", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.Detach = func(
			ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
		) error {
			return nil
		}
		mckGraph.Impl.ProjectsOf = func(ctx context.Context, et domain.EntityType, key string) ([]string, error) {
			return []string{"lung"}, nil
		}
		mckFacet := facetmock.NewFacetInterface()
		mckFacet.Impl.IndexAim = func(ctx context.Context, aimUid string, facets []domain.Facet) error {
			return nil
		}
		mckGarbage := garbagemock.NewGarbageInterface()
		st := memory.New()
		if err := st.Put(context.Background(), store.KindAnnotation, "aim-uid-1", []byte(aimDocBody)); err != nil {
			t.Fatal(err)
		}

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/projects/brain/aims/aim-uid-1/")
		c.SetPath("/api/projects/:projectId/aims/:aimUid/")
		c.SetParamNames("projectId", "aimUid")
		c.SetParamValues("brain", "aim-uid-1")

		testee := handlers.DeleteAimHandler(mckGraph, mckFacet, mckGarbage, st, "projectId", "aimUid")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if _, err := st.Get(context.Background(), store.KindAnnotation, "aim-uid-1"); err != nil {
			t.Errorf("the payload should survive: %v", err)
		}
		if mckGarbage.Calls.Pop.Times() != 0 {
			t.Errorf("Pop should not be called: %d", mckGarbage.Calls.Pop.Times())
		}

		if mckFacet.Calls.IndexAim.Times() != 1 {
			t.Fatalf("IndexAim should be called once: %d", mckFacet.Calls.IndexAim.Times())
		}
		indexed := mckFacet.Calls.IndexAim[0]
		if indexed.AimUid != "aim-uid-1" {
			t.Errorf("unexpected indexed aim uid: %s", indexed.AimUid)
		}
		for _, f := range indexed.Facets {
			if f.Name == domain.FacetProject && f.Value == "brain" {
				t.Errorf("the removed project should not be indexed: %+v", indexed.Facets)
			}
		}
		found := false
		for _, f := range indexed.Facets {
			if f.Name == domain.FacetProject && f.Value == "lung" {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("the remaining project should be indexed: %+v", indexed.Facets)
		}
	})

	t.Run("project-only removal of an annotation without payload is fine", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.Detach = func(
			ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
		) error {
			return nil
		}
		mckFacet := facetmock.NewFacetInterface()
		mckGarbage := garbagemock.NewGarbageInterface()
		st := memory.New()

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/projects/brain/aims/aim-uid-1/")
		c.SetPath("/api/projects/:projectId/aims/:aimUid/")
		c.SetParamNames("projectId", "aimUid")
		c.SetParamValues("brain", "aim-uid-1")

		testee := handlers.DeleteAimHandler(mckGraph, mckFacet, mckGarbage, st, "projectId", "aimUid")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusNoContent)
		}
		if mckFacet.Calls.IndexAim.Times() != 0 {
			t.Errorf("IndexAim should not be called: %d", mckFacet.Calls.IndexAim.Times())
		}
	})
}
