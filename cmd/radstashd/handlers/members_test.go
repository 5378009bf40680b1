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
	apimember "github.com/radstash/radstash/pkg/api/types/members"
	"github.com/radstash/radstash/pkg/api/types/resultset"
	"github.com/radstash/radstash/pkg/domain"
	archmock "github.com/radstash/radstash/pkg/domain/archive/mock"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	garbagemock "github.com/radstash/radstash/pkg/domain/garbage/db/mock"
	graphmock "github.com/radstash/radstash/pkg/domain/graph/db/mock"
	"github.com/radstash/radstash/pkg/domain/store/memory"
	"github.com/radstash/radstash/pkg/utils/cmp"
	"github.com/radstash/radstash/pkg/utils/try"

	"github.com/radstash/radstash/cmd/radstashd/handlers"
)

func TestPutSubjectHandler(t *testing.T) {

	t.Run("a subject known to the archive is registered and attached", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterSubject = func(ctx context.Context, s domain.Subject) error { return nil }
		mckGraph.Impl.Attach = func(ctx context.Context, project string, et domain.EntityType, key string) error {
			return nil
		}
		mckArch := archmock.NewArchive()
		mckArch.Impl.SubjectExists = func(ctx context.Context, subjectId string) (bool, error) {
			return true, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Put(
			e, "/api/projects/brain/subjects/patient-1/",
			strings.NewReader(`{"subjectId": "patient-1", "name": "DOE^JOHN"}`),
			httptestutil.ContentType("application/json"),
		)
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		testee := handlers.PutSubjectHandler(mckGraph, mckArch, "projectId", "subjectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		if !cmp.SliceEq(mckGraph.Calls.RegisterSubject, []domain.Subject{
			{SubjectId: "patient-1", Name: "DOE^JOHN"},
		}) {
			t.Errorf("unexpected RegisterSubject calls: %+v", mckGraph.Calls.RegisterSubject)
		}
		if !cmp.SliceEq(mckGraph.Calls.Attach, []struct {
			Project    string
			EntityType domain.EntityType
			Key        string
		}{
			{Project: "brain", EntityType: domain.EntitySubject, Key: "patient-1"},
		}) {
			t.Errorf("unexpected Attach calls: %+v", mckGraph.Calls.Attach)
		}
	})

	t.Run("a subject unknown to the archive is rejected with 400", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckArch := archmock.NewArchive()
		mckArch.Impl.SubjectExists = func(ctx context.Context, subjectId string) (bool, error) {
			return false, nil
		}

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/projects/brain/subjects/patient-1/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		err := handlers.PutSubjectHandler(mckGraph, mckArch, "projectId", "subjectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}
		if mckGraph.Calls.RegisterSubject.Times() != 0 {
			t.Errorf("RegisterSubject should not be called: %d", mckGraph.Calls.RegisterSubject.Times())
		}
	})

	t.Run("when the archive is unreachable, status code should be 503", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckArch := archmock.NewArchive()
		mckArch.Impl.SubjectExists = func(ctx context.Context, subjectId string) (bool, error) {
			return false, kerr.ErrUnavailable
		}

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/projects/brain/subjects/patient-1/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		err := handlers.PutSubjectHandler(mckGraph, mckArch, "projectId", "subjectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusServiceUnavailable {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("without an archive, the subject is registered as-is", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterSubject = func(ctx context.Context, s domain.Subject) error { return nil }
		mckGraph.Impl.Attach = func(ctx context.Context, project string, et domain.EntityType, key string) error {
			return nil
		}

		e := echo.New()
		c, respRec := httptestutil.Put(e, "/api/projects/brain/subjects/patient-1/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		testee := handlers.PutSubjectHandler(mckGraph, nil, "projectId", "subjectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}
	})

	t.Run("when the project is missing, status code should be 404", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterSubject = func(ctx context.Context, s domain.Subject) error { return nil }
		mckGraph.Impl.Attach = func(ctx context.Context, project string, et domain.EntityType, key string) error {
			return kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/projects/nowhere/subjects/patient-1/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("nowhere", "patient-1")

		err := handlers.PutSubjectHandler(mckGraph, nil, "projectId", "subjectId")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}

func TestPutStudyHandler(t *testing.T) {

	t.Run("a study with an unregistered subject is rejected with 400", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterStudy = func(ctx context.Context, s domain.Study) error {
			return kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/projects/brain/subjects/patient-1/studies/1.2.3/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/studies/:studyUid/")
		c.SetParamNames("projectId", "subjectId", "studyUid")
		c.SetParamValues("brain", "patient-1", "1.2.3")

		err := handlers.PutStudyHandler(mckGraph, nil, "projectId", "subjectId", "studyUid")(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusBadRequest)
		}

		if !cmp.SliceEq(mckGraph.Calls.RegisterStudy, []domain.Study{
			{StudyUid: "1.2.3", SubjectId: "patient-1"},
		}) {
			t.Errorf("unexpected RegisterStudy calls: %+v", mckGraph.Calls.RegisterStudy)
		}
	})

	t.Run("the archive is asked about the study uid", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.RegisterStudy = func(ctx context.Context, s domain.Study) error { return nil }
		mckGraph.Impl.Attach = func(ctx context.Context, project string, et domain.EntityType, key string) error {
			return nil
		}
		mckArch := archmock.NewArchive()
		mckArch.Impl.StudyExists = func(ctx context.Context, studyUid string) (bool, error) {
			return true, nil
		}

		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/projects/brain/subjects/patient-1/studies/1.2.3/", strings.NewReader(""))
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/studies/:studyUid/")
		c.SetParamNames("projectId", "subjectId", "studyUid")
		c.SetParamValues("brain", "patient-1", "1.2.3")

		testee := handlers.PutStudyHandler(mckGraph, mckArch, "projectId", "subjectId", "studyUid")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if !cmp.SliceEq(mckArch.Calls.StudyExists, []struct{ StudyUid string }{{StudyUid: "1.2.3"}}) {
			t.Errorf("unexpected StudyExists calls: %+v", mckArch.Calls.StudyExists)
		}
	})
}

func TestListMembersHandler(t *testing.T) {

	t.Run("members are listed with the ancestor filter from the route", func(t *testing.T) {
		attached := try.To(time.Parse(time.RFC3339, "2023-04-01T12:00:00+00:00")).OrFatal(t)
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.ListMembers = func(
			ctx context.Context, project string, et domain.EntityType, filter domain.AncestorFilter,
		) ([]domain.Member, error) {
			return []domain.Member{
				{Key: "file-a.dcm", Enabled: true, AttachedAt: attached},
				{Key: "file-b.dcm", Enabled: true, AttachedAt: attached.Add(time.Minute)},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/projects/brain/subjects/patient-1/studies/1.2.3/files/")
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/studies/:studyUid/files/")
		c.SetParamNames("projectId", "subjectId", "studyUid")
		c.SetParamValues("brain", "patient-1", "1.2.3")

		testee := handlers.ListMembersHandler(mckGraph, domain.EntityFile, "projectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}

		if !cmp.SliceEq(mckGraph.Calls.ListMembers, []struct {
			Project    string
			EntityType domain.EntityType
			Filter     domain.AncestorFilter
		}{
			{
				Project:    "brain",
				EntityType: domain.EntityFile,
				Filter:     domain.AncestorFilter{SubjectId: "patient-1", StudyUid: "1.2.3"},
			},
		}) {
			t.Errorf("unexpected ListMembers calls: %+v", mckGraph.Calls.ListMembers)
		}

		actual := resultset.Envelope[apimember.Member]{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.ResultSet.TotalRecords != 2 {
			t.Errorf("totalRecords %d != 2", actual.ResultSet.TotalRecords)
		}
		expected := []apimember.Member{
			apimember.ComposeMember(domain.Member{Key: "file-a.dcm", Enabled: true, AttachedAt: attached}),
			apimember.ComposeMember(domain.Member{Key: "file-b.dcm", Enabled: true, AttachedAt: attached.Add(time.Minute)}),
		}
		if !cmp.SliceEqWith(actual.ResultSet.Result, expected, func(a, b apimember.Member) bool { return a.Equal(&b) }) {
			t.Errorf("members do not match. (actual, expected) = \n(%v, \n%v)", actual.ResultSet.Result, expected)
		}
	})

	t.Run("an empty listing is an empty Result, not null", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.ListMembers = func(
			ctx context.Context, project string, et domain.EntityType, filter domain.AncestorFilter,
		) ([]domain.Member, error) {
			return nil, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/projects/brain/subjects/")
		c.SetPath("/api/projects/:projectId/subjects/")
		c.SetParamNames("projectId")
		c.SetParamValues("brain")

		testee := handlers.ListMembersHandler(mckGraph, domain.EntitySubject, "projectId")
		if err := testee(c); err != nil {
			t.Fatal(err)
		}

		if body := strings.TrimSpace(respRec.Body.String()); !strings.Contains(body, `"Result":[]`) {
			t.Errorf(`response should hold "Result":[] : %s`, body)
		}
	})
}

func TestDetachHandler(t *testing.T) {

	for name, testcase := range map[string]struct {
		query string
		scope domain.DetachScope
	}{
		"by default, it detaches from the project only": {
			query: "", scope: domain.DetachProjectOnly,
		},
		"with ?all=true, it detaches everywhere": {
			query: "?all=true", scope: domain.DetachEverywhere,
		},
	} {
		t.Run(name, func(t *testing.T) {
			mckGraph := graphmock.NewGraphInterface()
			mckGraph.Impl.Detach = func(
				ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
			) error {
				return nil
			}
			mckGarbage := garbagemock.NewGarbageInterface()
			mckGarbage.Impl.Pop = func(ctx context.Context, callback func(domain.Garbage) error) (bool, error) {
				return false, nil
			}
			st := memory.New()

			e := echo.New()
			c, respRec := httptestutil.Delete(e, "/api/projects/brain/subjects/patient-1/"+testcase.query)
			c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
			c.SetParamNames("projectId", "subjectId")
			c.SetParamValues("brain", "patient-1")

			testee := handlers.DetachHandler(mckGraph, mckGarbage, st, domain.EntitySubject, "projectId", "subjectId")
			if err := testee(c); err != nil {
				t.Fatal(err)
			}

			if respRec.Result().StatusCode != http.StatusNoContent {
				t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusNoContent)
			}

			if !cmp.SliceEq(mckGraph.Calls.Detach, []struct {
				Project    string
				EntityType domain.EntityType
				Key        string
				Scope      domain.DetachScope
			}{
				{Project: "brain", EntityType: domain.EntitySubject, Key: "patient-1", Scope: testcase.scope},
			}) {
				t.Errorf("unexpected Detach calls: %+v", mckGraph.Calls.Detach)
			}

			wantPops := uint(0)
			if testcase.scope == domain.DetachEverywhere {
				wantPops = 1
			}
			if mckGarbage.Calls.Pop.Times() != wantPops {
				t.Errorf("Pop should be called %d times: %d", wantPops, mckGarbage.Calls.Pop.Times())
			}
		})
	}

	t.Run("when the removal is blocked by plugin jobs, status code should be 409", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.Detach = func(
			ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
		) error {
			return kerr.ErrConflict
		}

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/projects/brain/subjects/patient-1/?all=true")
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		err := handlers.DetachHandler(
			mckGraph, garbagemock.NewGarbageInterface(), memory.New(),
			domain.EntitySubject, "projectId", "subjectId",
		)(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusConflict {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusConflict)
		}
	})

	t.Run("when the edge is missing, status code should be 404", func(t *testing.T) {
		mckGraph := graphmock.NewGraphInterface()
		mckGraph.Impl.Detach = func(
			ctx context.Context, project string, et domain.EntityType, key string, scope domain.DetachScope,
		) error {
			return kerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/projects/brain/subjects/patient-1/")
		c.SetPath("/api/projects/:projectId/subjects/:subjectId/")
		c.SetParamNames("projectId", "subjectId")
		c.SetParamValues("brain", "patient-1")

		err := handlers.DetachHandler(
			mckGraph, garbagemock.NewGarbageInterface(), memory.New(),
			domain.EntitySubject, "projectId", "subjectId",
		)(c)

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. acutal = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Errorf("unmatch error code:%d, expeced:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}
