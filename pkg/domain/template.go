package domain

// TemplateDocument models a template container export: a container holding
// one or more named templates. Like the annotation format, fields are
// sparsely populated in the wild.

type TemplateDocument struct {
	TemplateContainer *TemplateContainer `json:"TemplateContainer,omitempty"`
}

type TemplateContainer struct {
	Uid          string     `json:"uid,omitempty"`
	Name         string     `json:"name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Version      string     `json:"version,omitempty"`
	Authors      string     `json:"authors,omitempty"`
	CreationDate string     `json:"creationDate,omitempty"`
	Template     []Template `json:"Template,omitempty"`
}

type Template struct {
	TemplateType string `json:"templateType,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	CodeValue    string `json:"codeValue,omitempty"`
	CodeMeaning  string `json:"codeMeaning,omitempty"`
	Version      string `json:"version,omitempty"`
	Authors      string `json:"authors,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
}

// ContainerUid returns the container's uid, or "" when the document declares
// no container.
func (d TemplateDocument) ContainerUid() string {
	if d.TemplateContainer == nil {
		return ""
	}
	return d.TemplateContainer.Uid
}

// TemplateSummary is the container-level projection emitted for
// `?format=summary` listings.
type TemplateSummary struct {
	ContainerUID          string                 `json:"containerUID"`
	ContainerName         string                 `json:"containerName"`
	ContainerDescription  string                 `json:"containerDescription"`
	ContainerVersion      string                 `json:"containerVersion"`
	ContainerAuthors      string                 `json:"containerAuthors"`
	ContainerCreationDate string                 `json:"containerCreationDate"`
	Template              []TemplateSummaryEntry `json:"Template"`
}

type TemplateSummaryEntry struct {
	Type                 string `json:"type"`
	TemplateName         string `json:"templateName"`
	TemplateDescription  string `json:"templateDescription"`
	TemplateUID          string `json:"templateUID"`
	TemplateCodeValue    string `json:"templateCodeValue"`
	TemplateCodeMeaning  string `json:"templateCodeMeaning"`
	TemplateVersion      string `json:"templateVersion"`
	TemplateAuthors      string `json:"templateAuthors"`
	TemplateCreationDate string `json:"templateCreationDate"`
}
