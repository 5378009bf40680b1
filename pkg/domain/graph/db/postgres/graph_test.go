package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/conn/db/postgres/pool/testenv"
	"github.com/radstash/radstash/pkg/domain"
	domerr "github.com/radstash/radstash/pkg/domain/errors"
	"github.com/radstash/radstash/pkg/utils/cmp"
	"github.com/radstash/radstash/pkg/utils/slices"
	"github.com/radstash/radstash/pkg/utils/try"

	kpggarbage "github.com/radstash/radstash/pkg/domain/garbage/db/postgres"
	kpggraph "github.com/radstash/radstash/pkg/domain/graph/db/postgres"
	kpgproject "github.com/radstash/radstash/pkg/domain/project/db/postgres"
	kpgqueue "github.com/radstash/radstash/pkg/domain/plugin/db/postgres"
)

func newProjects(ctx context.Context, t *testing.T, pgpool kpool.Pool, projectIds ...string) {
	t.Helper()
	projects := kpgproject.New(pgpool)
	for _, id := range projectIds {
		if err := projects.Create(ctx, domain.Project{ProjectId: id, Access: domain.AccessPrivate}); err != nil {
			t.Fatal(err)
		}
	}
}

// registers subject patient-1 > study 1.2.3 > series 1.2.3.4 with an aim
// and a file scoped to the series.
func newHierarchy(ctx context.Context, t *testing.T, testee interface {
	RegisterSubject(context.Context, domain.Subject) error
	RegisterStudy(context.Context, domain.Study) error
	RegisterSeries(context.Context, domain.Series) error
	RegisterFile(context.Context, domain.FileInfo) error
	RegisterAim(context.Context, domain.AimInfo) error
}) {
	t.Helper()
	if err := testee.RegisterSubject(ctx, domain.Subject{SubjectId: "patient-1", Name: "DOE^JOHN"}); err != nil {
		t.Fatal(err)
	}
	if err := testee.RegisterStudy(ctx, domain.Study{StudyUid: "1.2.3", SubjectId: "patient-1"}); err != nil {
		t.Fatal(err)
	}
	if err := testee.RegisterSeries(ctx, domain.Series{SeriesUid: "1.2.3.4", StudyUid: "1.2.3"}); err != nil {
		t.Fatal(err)
	}
	if err := testee.RegisterFile(ctx, domain.FileInfo{
		Name: "scan.dcm", SubjectId: "patient-1", StudyUid: "1.2.3", SeriesUid: "1.2.3.4", Size: 1024,
	}); err != nil {
		t.Fatal(err)
	}
	if err := testee.RegisterAim(ctx, domain.AimInfo{
		AimUid: "aim-uid-1", SubjectId: "patient-1", StudyUid: "1.2.3", SeriesUid: "1.2.3.4", Creator: "alice",
	}); err != nil {
		t.Fatal(err)
	}
}

func memberKeys(members []domain.Member) []string {
	return slices.Map(members, func(m domain.Member) string { return m.Key })
}

func TestGraph_Register(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("registering is idempotent and updates mutable columns", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		if err := testee.RegisterSubject(ctx, domain.Subject{SubjectId: "patient-1"}); err != nil {
			t.Fatal(err)
		}
		if err := testee.RegisterSubject(ctx, domain.Subject{SubjectId: "patient-1", Name: "DOE^JOHN"}); err != nil {
			t.Fatal(err)
		}

		if found := try.To(testee.Exists(ctx, domain.EntitySubject, "patient-1")).OrFatal(t); !found {
			t.Errorf("subject should exist")
		}
	})

	t.Run("a study under an unregistered subject is rejected", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		err := testee.RegisterStudy(ctx, domain.Study{StudyUid: "1.2.3", SubjectId: "nobody"})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestGraph_Attach(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("an entity can be attached to many projects, idempotently", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain", "lung")
		newHierarchy(ctx, t, testee)

		for _, project := range []string{"brain", "lung", "brain"} {
			if err := testee.Attach(ctx, project, domain.EntitySubject, "patient-1"); err != nil {
				t.Fatal(err)
			}
		}

		members := try.To(testee.ListMembers(ctx, "brain", domain.EntitySubject, domain.AncestorFilter{})).OrFatal(t)
		if !cmp.SliceEq(memberKeys(members), []string{"patient-1"}) {
			t.Errorf("unexpected members: %+v", members)
		}

		projects := try.To(testee.ProjectsOf(ctx, domain.EntitySubject, "patient-1")).OrFatal(t)
		if !cmp.SliceEq(projects, []string{"brain", "lung"}) {
			t.Errorf("unexpected projects: %v", projects)
		}
	})

	t.Run("attaching a key without global record is rejected", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")

		err := testee.Attach(ctx, "brain", domain.EntitySubject, "nobody")
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("attaching to an unknown project is rejected", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newHierarchy(ctx, t, testee)

		err := testee.Attach(ctx, "no-such-project", domain.EntitySubject, "patient-1")
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("an attach racing an everywhere detach cannot leave an orphan edge", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")
		if err := testee.RegisterSubject(ctx, domain.Subject{SubjectId: "patient-1"}); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pgpool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		tx := try.To(conn.Begin(ctx)).OrFatal(t)
		defer tx.Rollback(ctx)

		// hold the global row the way an in-flight everywhere detach does.
		if _, err := tx.Exec(ctx, `select 1 from "subject" where "subject_id" = $1 for update`, "patient-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := tx.Exec(ctx, `delete from "membership" where "entity_type" = 'subject' and "entity_key" = $1`, "patient-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := tx.Exec(ctx, `delete from "subject" where "subject_id" = $1`, "patient-1"); err != nil {
			t.Fatal(err)
		}

		attachErr := make(chan error, 1)
		go func() {
			attachErr <- testee.Attach(ctx, "brain", domain.EntitySubject, "patient-1")
		}()

		select {
		case err := <-attachErr:
			t.Fatalf("attach should wait for the detach to finish: %v", err)
		case <-time.After(100 * time.Millisecond):
		}

		if err := tx.Commit(ctx); err != nil {
			t.Fatal(err)
		}
		if err := <-attachErr; !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}

		var edges int
		if err := conn.QueryRow(
			ctx, `select count(*) from "membership" where "entity_key" = $1`, "patient-1",
		).Scan(&edges); err != nil {
			t.Fatal(err)
		}
		if edges != 0 {
			t.Errorf("an orphan edge is left: %d", edges)
		}
	})
}

func TestGraph_ListMembers(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("ancestor filters narrow hierarchical listings", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")
		newHierarchy(ctx, t, testee)
		if err := testee.RegisterSubject(ctx, domain.Subject{SubjectId: "patient-2"}); err != nil {
			t.Fatal(err)
		}
		if err := testee.RegisterStudy(ctx, domain.Study{StudyUid: "9.8.7", SubjectId: "patient-2"}); err != nil {
			t.Fatal(err)
		}

		for _, edge := range []struct {
			et  domain.EntityType
			key string
		}{
			{domain.EntitySubject, "patient-1"},
			{domain.EntitySubject, "patient-2"},
			{domain.EntityStudy, "1.2.3"},
			{domain.EntityStudy, "9.8.7"},
			{domain.EntitySeries, "1.2.3.4"},
			{domain.EntityAim, "aim-uid-1"},
			{domain.EntityFile, "scan.dcm"},
		} {
			if err := testee.Attach(ctx, "brain", edge.et, edge.key); err != nil {
				t.Fatal(err)
			}
		}

		{
			studies := try.To(testee.ListMembers(
				ctx, "brain", domain.EntityStudy, domain.AncestorFilter{SubjectId: "patient-1"},
			)).OrFatal(t)
			if !cmp.SliceEq(memberKeys(studies), []string{"1.2.3"}) {
				t.Errorf("unexpected studies: %+v", studies)
			}
		}
		{
			files := try.To(testee.ListMembers(
				ctx, "brain", domain.EntityFile, domain.AncestorFilter{SeriesUid: "1.2.3.4"},
			)).OrFatal(t)
			if !cmp.SliceEq(memberKeys(files), []string{"scan.dcm"}) {
				t.Errorf("unexpected files: %+v", files)
			}
		}
		{
			aims := try.To(testee.ListMembers(
				ctx, "brain", domain.EntityAim, domain.AncestorFilter{SubjectId: "patient-2"},
			)).OrFatal(t)
			if len(aims) != 0 {
				t.Errorf("unexpected aims: %+v", aims)
			}
		}
	})
}

func TestGraph_DetachProjectOnly(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("descendant edges go in the project, other projects keep theirs", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain", "lung")
		newHierarchy(ctx, t, testee)

		for _, project := range []string{"brain", "lung"} {
			for _, edge := range []struct {
				et  domain.EntityType
				key string
			}{
				{domain.EntitySubject, "patient-1"},
				{domain.EntityStudy, "1.2.3"},
				{domain.EntitySeries, "1.2.3.4"},
				{domain.EntityAim, "aim-uid-1"},
				{domain.EntityFile, "scan.dcm"},
			} {
				if err := testee.Attach(ctx, project, edge.et, edge.key); err != nil {
					t.Fatal(err)
				}
			}
		}

		if err := testee.Detach(ctx, "brain", domain.EntitySubject, "patient-1", domain.DetachProjectOnly); err != nil {
			t.Fatal(err)
		}

		for _, et := range []domain.EntityType{
			domain.EntitySubject, domain.EntityStudy, domain.EntitySeries,
			domain.EntityAim, domain.EntityFile,
		} {
			members := try.To(testee.ListMembers(ctx, "brain", et, domain.AncestorFilter{})).OrFatal(t)
			if len(members) != 0 {
				t.Errorf("brain should hold no %s edges: %+v", et, members)
			}

			members = try.To(testee.ListMembers(ctx, "lung", et, domain.AncestorFilter{})).OrFatal(t)
			if len(members) != 1 {
				t.Errorf("lung should keep its %s edge: %+v", et, members)
			}
		}

		if found := try.To(testee.Exists(ctx, domain.EntitySubject, "patient-1")).OrFatal(t); !found {
			t.Errorf("the global record should survive a projectOnly detach")
		}
	})

	t.Run("detaching a missing edge is reported as such", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")
		newHierarchy(ctx, t, testee)

		err := testee.Detach(ctx, "brain", domain.EntitySubject, "patient-1", domain.DetachProjectOnly)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestGraph_DetachEverywhere(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("the global record, descendants and every edge go", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain", "lung")
		newHierarchy(ctx, t, testee)
		for _, project := range []string{"brain", "lung"} {
			if err := testee.Attach(ctx, project, domain.EntitySubject, "patient-1"); err != nil {
				t.Fatal(err)
			}
			if err := testee.Attach(ctx, project, domain.EntityAim, "aim-uid-1"); err != nil {
				t.Fatal(err)
			}
		}

		if err := testee.Detach(ctx, "brain", domain.EntitySubject, "patient-1", domain.DetachEverywhere); err != nil {
			t.Fatal(err)
		}

		for _, check := range []struct {
			et  domain.EntityType
			key string
		}{
			{domain.EntitySubject, "patient-1"},
			{domain.EntityStudy, "1.2.3"},
			{domain.EntitySeries, "1.2.3.4"},
			{domain.EntityAim, "aim-uid-1"},
			{domain.EntityFile, "scan.dcm"},
		} {
			if found := try.To(testee.Exists(ctx, check.et, check.key)).OrFatal(t); found {
				t.Errorf("%s '%s' should be gone", check.et, check.key)
			}
		}
		projects := try.To(testee.ProjectsOf(ctx, domain.EntityAim, "aim-uid-1")).OrFatal(t)
		if len(projects) != 0 {
			t.Errorf("no project should hold the aim: %v", projects)
		}

		garbage := kpggarbage.New(pgpool)
		collected := []domain.Garbage{}
		for {
			popped, err := garbage.Pop(ctx, func(g domain.Garbage) error {
				collected = append(collected, g)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if !popped {
				break
			}
		}
		if !cmp.SliceContentEq(collected, []domain.Garbage{
			{Kind: "annotation", Key: "aim-uid-1"},
			{Kind: "file-blob", Key: "scan.dcm"},
			{Kind: "file-meta", Key: "scan.dcm"},
		}) {
			t.Errorf("unexpected payload keys queued: %+v", collected)
		}
	})

	t.Run("a queued plugin job blocks the cascade", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)
		queue := kpgqueue.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")
		newHierarchy(ctx, t, testee)
		if err := testee.Attach(ctx, "brain", domain.EntitySubject, "patient-1"); err != nil {
			t.Fatal(err)
		}

		job := try.To(queue.Enqueue(ctx, domain.PluginQueueJob{
			AimUid: "aim-uid-1", ContainerId: "segmentation", ContainerName: "Segmentation",
		})).OrFatal(t)

		err := testee.Detach(ctx, "brain", domain.EntitySubject, "patient-1", domain.DetachEverywhere)
		if !errors.Is(err, domerr.ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
		if found := try.To(testee.Exists(ctx, domain.EntitySubject, "patient-1")).OrFatal(t); !found {
			t.Errorf("a blocked cascade should not remove the subject")
		}

		// once the job is done, the cascade goes through.
		if err := queue.ChangeStatus(ctx, job.Id, domain.JobComplete); err != nil {
			t.Fatal(err)
		}
		if err := testee.Detach(ctx, "brain", domain.EntitySubject, "patient-1", domain.DetachEverywhere); err != nil {
			t.Fatal(err)
		}
	})
}

func TestGraph_SetEnabled(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	t.Run("the flag lands on the edge without detaching it", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")
		if err := testee.RegisterTemplate(ctx, domain.TemplateInfo{ContainerUid: "tpl-uid-1", CodeValue: "RECIST"}); err != nil {
			t.Fatal(err)
		}
		if err := testee.Attach(ctx, "brain", domain.EntityTemplate, "tpl-uid-1"); err != nil {
			t.Fatal(err)
		}

		if err := testee.SetEnabled(ctx, "brain", domain.EntityTemplate, "tpl-uid-1", false); err != nil {
			t.Fatal(err)
		}

		members := try.To(testee.ListMembers(ctx, "brain", domain.EntityTemplate, domain.AncestorFilter{})).OrFatal(t)
		if len(members) != 1 || members[0].Enabled {
			t.Errorf("unexpected members: %+v", members)
		}
	})

	t.Run("a missing edge is reported as such", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		testee := kpggraph.New(pgpool)

		newProjects(ctx, t, pgpool, "brain")

		err := testee.SetEnabled(ctx, "brain", domain.EntityTemplate, "tpl-uid-1", false)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
