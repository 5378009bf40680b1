package main

import (
	"context"
	"flag"
	"log"
	"net/url"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	rconf "github.com/radstash/radstash/pkg/configs/server"
	"github.com/radstash/radstash/pkg/domain"
	kradstash "github.com/radstash/radstash/pkg/domain/radstash"
	"github.com/radstash/radstash/pkg/metrics"
	"github.com/radstash/radstash/pkg/utils/echoutil"
	kstrings "github.com/radstash/radstash/pkg/utils/strings"

	"github.com/radstash/radstash/cmd/radstashd/handlers"
)

func main() {

	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// read configfile
	conf, err := rconf.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	api, err := root("/api")
	if err != nil {
		log.Fatalf("api root /api is invalid url or path: %s", err)
	}

	ctx := context.Background()
	rad, err := kradstash.New(ctx, conf.Radstash())
	if err != nil {
		log.Fatalf("can not start radstash: %s", err)
	}
	defer rad.Close()

	// refuse to keep serving once the schema repository outpaces the
	// database.
	{
		sctx, scan := rad.Schema().Database().Context(ctx)
		defer scan()
		ctx = sctx
	}

	dbGraph := rad.Graph().Database()
	dbProject := rad.Project().Database()
	dbFacet := rad.Facet().Database()
	dbQueue := rad.Plugin().Database()
	dbGarbage := rad.Garbage().Database()
	st := rad.Store()
	arch := rad.Archive()

	// handlers
	{
		e.GET(api("projects"), handlers.ListProjectsHandler(dbProject))
		e.POST(api("projects/:projectId/"), handlers.CreateProjectHandler(dbProject, "projectId"))
		e.GET(api("projects/:projectId/"), handlers.GetProjectHandler(dbProject, "projectId"))
		e.PUT(api("projects/:projectId/"), handlers.UpdateProjectHandler(dbProject, "projectId"))
		e.DELETE(api("projects/:projectId/"), handlers.DeleteProjectHandler(dbProject, "projectId"))
	}

	{
		e.PUT(
			api("projects/:projectId/subjects/:subjectId/"),
			handlers.PutSubjectHandler(dbGraph, arch, "projectId", "subjectId"),
		)
		e.GET(
			api("projects/:projectId/subjects"),
			handlers.ListMembersHandler(dbGraph, domain.EntitySubject, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/subjects/:subjectId/"),
			handlers.DetachHandler(dbGraph, dbGarbage, st, domain.EntitySubject, "projectId", "subjectId"),
		)

		e.PUT(
			api("projects/:projectId/subjects/:subjectId/studies/:studyUid/"),
			handlers.PutStudyHandler(dbGraph, arch, "projectId", "subjectId", "studyUid"),
		)
		e.GET(
			api("projects/:projectId/studies"),
			handlers.ListMembersHandler(dbGraph, domain.EntityStudy, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/studies"),
			handlers.ListMembersHandler(dbGraph, domain.EntityStudy, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/studies/:studyUid/"),
			handlers.DetachHandler(dbGraph, dbGarbage, st, domain.EntityStudy, "projectId", "studyUid"),
		)

		e.PUT(
			api("projects/:projectId/subjects/:subjectId/studies/:studyUid/series/:seriesUid/"),
			handlers.PutSeriesHandler(dbGraph, arch, "projectId", "studyUid", "seriesUid"),
		)
		e.GET(
			api("projects/:projectId/series"),
			handlers.ListMembersHandler(dbGraph, domain.EntitySeries, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/studies/:studyUid/series"),
			handlers.ListMembersHandler(dbGraph, domain.EntitySeries, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/series/:seriesUid/"),
			handlers.DetachHandler(dbGraph, dbGarbage, st, domain.EntitySeries, "projectId", "seriesUid"),
		)
	}

	{
		e.PUT(
			api("projects/:projectId/files/:fileName/"),
			handlers.PutFileHandler(dbGraph, st, "projectId", "fileName"),
		)
		e.GET(
			api("projects/:projectId/files/:fileName/"),
			handlers.GetFileHandler(dbGraph, st, "projectId", "fileName"),
		)
		e.GET(
			api("projects/:projectId/files"),
			handlers.ListMembersHandler(dbGraph, domain.EntityFile, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/files"),
			handlers.ListMembersHandler(dbGraph, domain.EntityFile, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/studies/:studyUid/files"),
			handlers.ListMembersHandler(dbGraph, domain.EntityFile, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/studies/:studyUid/series/:seriesUid/files"),
			handlers.ListMembersHandler(dbGraph, domain.EntityFile, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/files/:fileName/"),
			handlers.DetachHandler(dbGraph, dbGarbage, st, domain.EntityFile, "projectId", "fileName"),
		)
	}

	{
		e.POST(
			api("projects/:projectId/aims"),
			handlers.PostAimHandler(dbGraph, dbFacet, st, "projectId"),
		)
		e.GET(
			api("projects/:projectId/aims"),
			handlers.ListMembersHandler(dbGraph, domain.EntityAim, "projectId"),
		)
		e.GET(
			api("projects/:projectId/subjects/:subjectId/aims"),
			handlers.ListMembersHandler(dbGraph, domain.EntityAim, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/aims/:aimUid/"),
			handlers.DeleteAimHandler(dbGraph, dbFacet, dbGarbage, st, "projectId", "aimUid"),
		)

		e.GET(api("aims"), handlers.FindAimsHandler(dbFacet))
		e.GET(api("aims/:aimUid/"), handlers.GetAimHandler(st, "aimUid"))
	}

	{
		e.POST(
			api("projects/:projectId/templates"),
			handlers.PostTemplateHandler(dbGraph, dbFacet, st, "projectId"),
		)
		e.GET(
			api("projects/:projectId/templates"),
			handlers.ListTemplatesHandler(dbGraph, st, "projectId"),
		)
		e.PUT(
			api("projects/:projectId/templates/:templateUid/"),
			handlers.PutTemplateEnableHandler(dbGraph, "projectId", "templateUid"),
		)
		e.DELETE(
			api("projects/:projectId/templates/:templateUid/"),
			handlers.DeleteTemplateHandler(dbGraph, dbGarbage, st, "projectId", "templateUid"),
		)

		e.GET(api("templates"), handlers.FindTemplatesHandler(dbFacet))
	}

	{
		e.PUT(
			api("projects/:projectId/plugins/:pluginId/"),
			handlers.PutPluginHandler(dbGraph, "projectId", "pluginId"),
		)
		e.GET(
			api("projects/:projectId/plugins"),
			handlers.ListMembersHandler(dbGraph, domain.EntityPlugin, "projectId"),
		)
		e.DELETE(
			api("projects/:projectId/plugins/:pluginId/"),
			handlers.DetachHandler(dbGraph, dbGarbage, st, domain.EntityPlugin, "projectId", "pluginId"),
		)
	}

	{
		e.POST(api("queue"), handlers.EnqueueHandler(dbQueue))
		e.GET(api("queue"), handlers.FindJobsHandler(dbQueue))
		e.GET(api("queue/:jobId/"), handlers.GetJobHandler(dbQueue, "jobId"))
		e.PUT(api("queue/:jobId/status"), handlers.PutJobStatusHandler(dbQueue, "jobId"))
	}

	e.GET("/metrics/", echo.WrapHandler(metrics.Handler()))

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	port := strconv.Itoa(int(conf.Port()))
	cert, key := *pcert, *pkey

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if cert != "" && key != "" {
			ch <- e.StartTLS(":"+port, cert, key)
		} else {
			ch <- e.Start(":" + port)
		}
	}()

	select {
	case <-ctx.Done():
		e.Shutdown(context.Background())
		log.Fatalf("stop serving: %s", context.Cause(ctx))
	case err := <-ch:
		e.Logger.Fatal(err)
	}
}

// create api URL factory
//
// args:
//   - root: api root
//
// return:
// - func: it receive relative path from root, and returns full-path of URL.
func root(r string) (func(...string) string, error) {
	origin := "" // "/" terminated. if r is path only, this is empty.
	base := ""
	{
		b, err := url.Parse(r)
		if err != nil {
			return nil, err
		}
		base = b.Path
		if b.Host != "" || b.Scheme != "" {
			_r := *b
			r := &_r
			r.RawPath = ""
			r.Path = ""
			r.RawQuery = ""
			r.Fragment = ""
			origin = r.String()
		}
	}
	origin = kstrings.SuppySuffix(origin, "/")

	return func(s ...string) string {
		parts := make([]string, len(s)+1)
		parts[0] = base
		copy(parts[1:], s)
		path := path.Join(parts...)
		path = kstrings.TrimPrefixAll(path, "/")

		return kstrings.SuppySuffix(origin+path, "/")
	}, nil
}
