package projects

import (
	"github.com/radstash/radstash/pkg/domain"
	"github.com/radstash/radstash/pkg/utils/rfctime"
)

type Detail struct {
	ProjectId   string          `json:"projectId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Access      string          `json:"access"`
	Creator     string          `json:"creator,omitempty"`
	CreatedAt   rfctime.RFC3339 `json:"createdAt"`
}

func (d *Detail) Equal(o *Detail) bool {
	return d.ProjectId == o.ProjectId &&
		d.Name == o.Name &&
		d.Description == o.Description &&
		d.Access == o.Access &&
		d.Creator == o.Creator &&
		d.CreatedAt.Equal(&o.CreatedAt)
}

func ComposeDetail(p domain.Project) Detail {
	return Detail{
		ProjectId:   p.ProjectId,
		Name:        p.Name,
		Description: p.Description,
		Access:      string(p.Access),
		Creator:     p.Creator,
		CreatedAt:   rfctime.RFC3339(p.CreatedAt),
	}
}

// Change is the request body of project create and update.
type Change struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Access      string `json:"access,omitempty"`
}
