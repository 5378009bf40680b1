package domain

import (
	"fmt"
	"time"
)

// EntityType discriminates rows in the polymorphic membership relation.
type EntityType string

const (
	EntitySubject  EntityType = "subject"
	EntityStudy    EntityType = "study"
	EntitySeries   EntityType = "series"
	EntityFile     EntityType = "file"
	EntityAim      EntityType = "aim"
	EntityTemplate EntityType = "template"
	EntityPlugin   EntityType = "plugin"
)

func (et EntityType) String() string {
	return string(et)
}

func AsEntityType(s string) (EntityType, error) {
	switch s {
	case string(EntitySubject):
		return EntitySubject, nil
	case string(EntityStudy):
		return EntityStudy, nil
	case string(EntitySeries):
		return EntitySeries, nil
	case string(EntityFile):
		return EntityFile, nil
	case string(EntityAim):
		return EntityAim, nil
	case string(EntityTemplate):
		return EntityTemplate, nil
	case string(EntityPlugin):
		return EntityPlugin, nil
	default:
		return "", fmt.Errorf("'%s' is not EntityType", s)
	}
}

// Hierarchical reports whether detaching an entity of this type cascades
// to entities nested under it.
func (et EntityType) Hierarchical() bool {
	switch et {
	case EntitySubject, EntityStudy, EntitySeries:
		return true
	default:
		return false
	}
}

// DetachScope selects how far a detach reaches.
type DetachScope string

const (
	// remove the edge (and descendant edges) in one project only.
	DetachProjectOnly DetachScope = "projectOnly"

	// remove the global record, every project's edges, and descendants.
	DetachEverywhere DetachScope = "everywhere"
)

type ProjectAccess string

const (
	AccessPrivate ProjectAccess = "private"
	AccessPublic  ProjectAccess = "public"
)

func AsProjectAccess(s string) (ProjectAccess, error) {
	switch s {
	case string(AccessPrivate), "":
		return AccessPrivate, nil
	case string(AccessPublic):
		return AccessPublic, nil
	default:
		return "", fmt.Errorf("'%s' is not ProjectAccess", s)
	}
}

type Project struct {
	// unique string key, as it appears in URLs.
	ProjectId   string
	Name        string
	Description string
	Access      ProjectAccess
	Creator     string
	CreatedAt   time.Time
}

func (p Project) Equal(o Project) bool {
	return p.ProjectId == o.ProjectId &&
		p.Name == o.Name &&
		p.Description == o.Description &&
		p.Access == o.Access &&
		p.Creator == o.Creator &&
		p.CreatedAt.Equal(o.CreatedAt)
}

// Subject is a patient-level record, global and independent of projects.
type Subject struct {
	SubjectId string
	Name      string
}

type Study struct {
	StudyUid  string
	SubjectId string
}

type Series struct {
	SeriesUid string
	StudyUid  string
}

// FileInfo is the global record of a stored file.
// Subject/Study/Series scope the file into the hierarchy; empty means unscoped.
type FileInfo struct {
	Name      string
	SubjectId string
	StudyUid  string
	SeriesUid string
	Size      int64
	Creator   string
}

// AimInfo is the global record of an annotation document; the payload itself
// lives in the content store keyed by AimUid.
type AimInfo struct {
	AimUid    string
	SubjectId string
	StudyUid  string
	SeriesUid string
	Creator   string
}

// TemplateInfo is the global record of a template container document.
type TemplateInfo struct {
	ContainerUid string
	CodeValue    string
}

// Plugin is the global record of a registered algorithm plugin.
type Plugin struct {
	PluginId string
	Name     string
	Image    string
}

// Member is one entry of a project-scoped listing.
type Member struct {
	Key        string
	Enabled    bool
	AttachedAt time.Time
}

// Garbage is a content store payload whose owning entity is gone; the
// key is queued here until the payload itself is removed.
// Kind matches the store's payload namespaces.
type Garbage struct {
	Kind string
	Key  string
}

// AncestorFilter narrows ListMembers to descendants of the given keys.
// Zero value means no filtering.
type AncestorFilter struct {
	SubjectId string
	StudyUid  string
	SeriesUid string
}

func (f AncestorFilter) Empty() bool {
	return f.SubjectId == "" && f.StudyUid == "" && f.SeriesUid == ""
}
