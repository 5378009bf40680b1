package queue

import (
	"github.com/radstash/radstash/pkg/domain"
	"github.com/radstash/radstash/pkg/utils/rfctime"
)

type Detail struct {
	Id            int              `json:"id"`
	PluginId      *string          `json:"pluginId,omitempty"`
	ProjectId     *string          `json:"projectId,omitempty"`
	TemplateId    *string          `json:"templateId,omitempty"`
	ParameterType string           `json:"parameterType,omitempty"`
	AimUid        string           `json:"aimUid"`
	ContainerId   string           `json:"containerId"`
	ContainerName string           `json:"containerName"`
	MaxMemory     int              `json:"maxMemory,omitempty"`
	Status        string           `json:"status"`
	Creator       string           `json:"creator,omitempty"`
	StartTime     rfctime.RFC3339  `json:"startTime"`
	EndTime       *rfctime.RFC3339 `json:"endTime,omitempty"`
}

func (d *Detail) Equal(o *Detail) bool {
	return d.Id == o.Id &&
		eqp(d.PluginId, o.PluginId) &&
		eqp(d.ProjectId, o.ProjectId) &&
		eqp(d.TemplateId, o.TemplateId) &&
		d.ParameterType == o.ParameterType &&
		d.AimUid == o.AimUid &&
		d.ContainerId == o.ContainerId &&
		d.ContainerName == o.ContainerName &&
		d.MaxMemory == o.MaxMemory &&
		d.Status == o.Status &&
		d.Creator == o.Creator &&
		d.StartTime.Equal(&o.StartTime) &&
		d.EndTime.Equal(o.EndTime)
}

func eqp(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func ComposeDetail(j domain.PluginQueueJob) Detail {
	var end *rfctime.RFC3339
	if j.EndTime != nil {
		e := rfctime.RFC3339(*j.EndTime)
		end = &e
	}
	return Detail{
		Id:            j.Id,
		PluginId:      j.PluginId,
		ProjectId:     j.ProjectId,
		TemplateId:    j.TemplateId,
		ParameterType: j.ParameterType,
		AimUid:        j.AimUid,
		ContainerId:   j.ContainerId,
		ContainerName: j.ContainerName,
		MaxMemory:     j.MaxMemory,
		Status:        j.Status.String(),
		Creator:       j.Creator,
		StartTime:     rfctime.RFC3339(j.StartTime),
		EndTime:       end,
	}
}

// Submission is the request body of enqueue.
type Submission struct {
	PluginId      *string `json:"pluginId,omitempty"`
	ProjectId     *string `json:"projectId,omitempty"`
	TemplateId    *string `json:"templateId,omitempty"`
	ParameterType string  `json:"parameterType,omitempty"`
	AimUid        string  `json:"aimUid"`
	ContainerId   string  `json:"containerId"`
	ContainerName string  `json:"containerName"`
	MaxMemory     int     `json:"maxMemory,omitempty"`
	Creator       string  `json:"creator,omitempty"`
}

func (s Submission) AsJob() domain.PluginQueueJob {
	return domain.PluginQueueJob{
		PluginId:      s.PluginId,
		ProjectId:     s.ProjectId,
		TemplateId:    s.TemplateId,
		ParameterType: s.ParameterType,
		AimUid:        s.AimUid,
		ContainerId:   s.ContainerId,
		ContainerName: s.ContainerName,
		MaxMemory:     s.MaxMemory,
		Creator:       s.Creator,
	}
}

// StatusChange is the request body of job status updates.
type StatusChange struct {
	Status string `json:"status"`
}
