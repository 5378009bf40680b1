package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain/archive"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
)

type Archive struct {
	Impl struct {
		SubjectExists func(context.Context, string) (bool, error)
		StudyExists   func(context.Context, string) (bool, error)
		SeriesExists  func(context.Context, string, string) (bool, error)
	}
	Calls struct {
		SubjectExists dbmock.CallLog[struct{ SubjectId string }]
		StudyExists   dbmock.CallLog[struct{ StudyUid string }]
		SeriesExists  dbmock.CallLog[struct {
			StudyUid  string
			SeriesUid string
		}]
	}
}

func NewArchive() *Archive {
	return &Archive{}
}

var _ archive.Archive = &Archive{}

func (a *Archive) SubjectExists(ctx context.Context, subjectId string) (bool, error) {
	a.Calls.SubjectExists = append(a.Calls.SubjectExists, struct{ SubjectId string }{SubjectId: subjectId})
	if a.Impl.SubjectExists != nil {
		return a.Impl.SubjectExists(ctx, subjectId)
	}
	panic(errors.New("it should not be called"))
}

func (a *Archive) StudyExists(ctx context.Context, studyUid string) (bool, error) {
	a.Calls.StudyExists = append(a.Calls.StudyExists, struct{ StudyUid string }{StudyUid: studyUid})
	if a.Impl.StudyExists != nil {
		return a.Impl.StudyExists(ctx, studyUid)
	}
	panic(errors.New("it should not be called"))
}

func (a *Archive) SeriesExists(ctx context.Context, studyUid string, seriesUid string) (bool, error) {
	a.Calls.SeriesExists = append(a.Calls.SeriesExists, struct {
		StudyUid  string
		SeriesUid string
	}{
		StudyUid: studyUid, SeriesUid: seriesUid,
	})
	if a.Impl.SeriesExists != nil {
		return a.Impl.SeriesExists(ctx, studyUid, seriesUid)
	}
	panic(errors.New("it should not be called"))
}
