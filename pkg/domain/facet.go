package domain

// Facet is a derived, searchable attribute of an annotation document.
// It is a (name, value) pair, like a tag.
type Facet struct {
	Name  string
	Value string
}

func (f Facet) String() string {
	return f.Name + ":" + f.Value
}

// facet names emitted by annotation extraction. Kept as string constants
// rather than an enum: the persisted index stores them verbatim and older
// indexed data must stay readable.
const (
	FacetDefault             = "default"
	FacetProject             = "project"
	FacetPatientName         = "patient_name"
	FacetPatientId           = "patient_id"
	FacetUser                = "user"
	FacetCreationDate        = "creation_date"
	FacetCreationTime        = "creation_time"
	FacetUnknownCreationDate = "unknown_creation_date"
	FacetName                = "name"
	FacetComment             = "comment"
	FacetProgrammedComment   = "programmed_comment"
	FacetTemplateName        = "template_name"
	FacetTemplateCode        = "template_code"
	FacetAnatomy             = "anatomy"
	FacetObservation         = "observation"
	FacetStudyDate           = "study_date"
	FacetStudyUid            = "study_uid"
	FacetModality            = "modality"
	FacetSeriesUid           = "series_uid"
	FacetInstanceUid         = "instance_uid"
)

// ListingKey identifies one template listing emission: documents are listed
// both under (type, codeValue) and under (codeValue, "").
type ListingKey struct {
	Kind string
	Code string
}

// TemplateListing is a listing emission of a template document.
type TemplateListing struct {
	Key     ListingKey
	Payload TemplateDocument
}

// TemplateSummaryEmission is a summary emission of a template document,
// keyed by (type, templateUID) and by (templateCodeValue, "").
type TemplateSummaryEmission struct {
	Key     ListingKey
	Summary TemplateSummary
}

// TemplateFacets is the full extraction result of a template document.
type TemplateFacets struct {
	Listing []TemplateListing
	Summary []TemplateSummaryEmission
}
