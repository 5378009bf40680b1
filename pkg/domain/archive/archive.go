// Package archive is the boundary to the source imaging system. It is
// consulted before registering subjects, studies and series, so the
// graph never holds identifiers the archive does not know.
package archive

import (
	"context"
)

type Archive interface {
	// SubjectExists tests whether the archive holds any study of the
	// patient.
	//
	// returns:
	//     - error: ErrUnavailable when the archive cannot be reached.
	SubjectExists(ctx context.Context, subjectId string) (bool, error)

	// StudyExists tests whether the archive holds the study.
	StudyExists(ctx context.Context, studyUid string) (bool, error)

	// SeriesExists tests whether the archive holds the series within
	// the study.
	SeriesExists(ctx context.Context, studyUid string, seriesUid string) (bool, error)
}
