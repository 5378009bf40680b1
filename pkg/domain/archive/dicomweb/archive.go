// Package dicomweb queries a DICOMweb (QIDO-RS) endpoint.
package dicomweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/radstash/radstash/pkg/domain/archive"
	domerr "github.com/radstash/radstash/pkg/domain/errors"
)

// DefaultTimeout bounds each QIDO query. An archive slower than this is
// reported unreachable rather than waited for.
const DefaultTimeout = 30 * time.Second

type qidoArchive struct {
	base    string
	client  *http.Client
	timeout time.Duration
}

var _ archive.Archive = &qidoArchive{}

type Option func(*qidoArchive) *qidoArchive

func WithClient(client *http.Client) Option {
	return func(a *qidoArchive) *qidoArchive {
		a.client = client
		return a
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(a *qidoArchive) *qidoArchive {
		a.timeout = timeout
		return a
	}
}

// New points at a QIDO-RS root, e.g. "http://pacs.example.com/dicomweb".
func New(base string, option ...Option) *qidoArchive {
	a := &qidoArchive{
		base:    base,
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range option {
		a = opt(a)
	}
	return a
}

func (a *qidoArchive) SubjectExists(ctx context.Context, subjectId string) (bool, error) {
	return a.query(ctx, "/studies", url.Values{"PatientID": {subjectId}})
}

func (a *qidoArchive) StudyExists(ctx context.Context, studyUid string) (bool, error) {
	return a.query(ctx, "/studies", url.Values{"StudyInstanceUID": {studyUid}})
}

func (a *qidoArchive) SeriesExists(ctx context.Context, studyUid string, seriesUid string) (bool, error) {
	return a.query(
		ctx,
		fmt.Sprintf("/studies/%s/series", url.PathEscape(studyUid)),
		url.Values{"SeriesInstanceUID": {seriesUid}},
	)
}

// query issues a QIDO search limited to one match. 200 means found,
// 204 means no match.
func (a *qidoArchive) query(ctx context.Context, path string, params url.Values) (bool, error) {
	params.Set("limit", "1")

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, a.base+path+"?"+params.Encode(), nil,
	)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/dicom+json")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: archive: %s", domerr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNoContent:
		return false, nil
	case 500 <= resp.StatusCode:
		return false, fmt.Errorf(
			"%w: archive responded %d", domerr.ErrUnavailable, resp.StatusCode,
		)
	default:
		return false, fmt.Errorf("archive responded %d", resp.StatusCode)
	}
}
