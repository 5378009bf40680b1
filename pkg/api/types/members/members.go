package members

import (
	"github.com/radstash/radstash/pkg/domain"
	"github.com/radstash/radstash/pkg/utils/rfctime"
)

// Member is one project-scoped listing entry; Key is the entity's
// global identifier for its type.
type Member struct {
	Key        string          `json:"key"`
	Enabled    bool            `json:"enabled"`
	AttachedAt rfctime.RFC3339 `json:"attachedAt"`
}

func (m *Member) Equal(o *Member) bool {
	return m.Key == o.Key &&
		m.Enabled == o.Enabled &&
		m.AttachedAt.Equal(&o.AttachedAt)
}

func ComposeMember(m domain.Member) Member {
	return Member{
		Key:        m.Key,
		Enabled:    m.Enabled,
		AttachedAt: rfctime.RFC3339(m.AttachedAt),
	}
}

// Subject is the request body of subject registration.
type Subject struct {
	SubjectId string `json:"subjectId"`
	Name      string `json:"name,omitempty"`
}

// File is the stored metadata record of an uploaded file;
// subject/study/series scope the file into the hierarchy when present.
type File struct {
	Name      string `json:"name"`
	SubjectId string `json:"subjectId,omitempty"`
	StudyUid  string `json:"studyUid,omitempty"`
	SeriesUid string `json:"seriesUid,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Creator   string `json:"creator,omitempty"`
}

func ComposeFile(f domain.FileInfo) File {
	return File{
		Name:      f.Name,
		SubjectId: f.SubjectId,
		StudyUid:  f.StudyUid,
		SeriesUid: f.SeriesUid,
		Size:      f.Size,
		Creator:   f.Creator,
	}
}

// Plugin is the request body of plugin registration.
type Plugin struct {
	PluginId string `json:"pluginId"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}
