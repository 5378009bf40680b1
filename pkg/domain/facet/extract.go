// Package facet derives searchable facets and listing keys from annotation
// and template documents.
//
// Extraction is a pure function of the document: no I/O, no errors. The
// split and fallback rules in here look arbitrary but are load-bearing;
// they must match the values already persisted by earlier deployments, so
// change nothing without a migration plan.
package facet

import (
	"strings"

	"github.com/radstash/radstash/pkg/domain"
)

// ManualModalityCode marks annotations drawn outside any imaging series.
// When a series declares this modality, the real modality is encoded in the
// programmed comment instead (text before the first "/").
const ManualModalityCode = "99EPADM0"

// sentinels for empty-but-present series/instance references.
const (
	NoSeries   = "noseries"
	NoInstance = "noinstance"
)

// emitter accumulates facets, duplicating every emission into the
// catch-all "default" facet and dropping duplicates and empty values.
type emitter struct {
	facets []domain.Facet
	seen   map[domain.Facet]struct{}
}

func newEmitter() *emitter {
	return &emitter{seen: map[domain.Facet]struct{}{}}
}

func (e *emitter) emit(name, value string) {
	if value == "" {
		return
	}
	for _, f := range []domain.Facet{
		{Name: name, Value: value},
		{Name: domain.FacetDefault, Value: value},
	} {
		if _, ok := e.seen[f]; ok {
			continue
		}
		e.seen[f] = struct{}{}
		e.facets = append(e.facets, f)
	}
}

// ExtractAnnotationFacets derives the facet set of an annotation document.
// projects are the projects the annotation is associated with, passed
// alongside the document itself.
//
// Documents without an annotation collection yield nil. Absence of any
// nested field yields absence of the corresponding facet, never an error.
func ExtractAnnotationFacets(doc domain.AimDocument, projects []string) []domain.Facet {
	coll := doc.ImageAnnotationCollection
	if coll == nil {
		return nil
	}

	e := newEmitter()

	for _, p := range projects {
		e.emit(domain.FacetProject, p)
	}

	if coll.Person != nil {
		e.emit(domain.FacetPatientName, value(coll.Person.Name))
		e.emit(domain.FacetPatientId, value(coll.Person.Id))
	}
	if coll.User != nil {
		e.emit(domain.FacetUser, value(coll.User.LoginName))
	}

	if dt := value(coll.DateTime); dt != "" {
		digits := digitsOf(dt)
		if len(digits) == 14 {
			e.emit(domain.FacetCreationDate, digits[:8])
			e.emit(domain.FacetCreationTime, digits[8:])
		} else {
			e.emit(domain.FacetUnknownCreationDate, digits)
		}
	}

	ann, ok := firstAnnotation(coll)
	if !ok {
		return e.facets
	}

	if name := value(ann.Name); name != "" {
		before, _, _ := strings.Cut(name, "~")
		e.emit(domain.FacetName, before)
	}

	programmed, freeText, hasFreeText := splitComment(value(ann.Comment))
	e.emit(domain.FacetProgrammedComment, programmed)
	if hasFreeText {
		e.emit(domain.FacetComment, freeText)
	}

	if len(ann.TypeCode) > 0 {
		e.emit(domain.FacetTemplateName, display(ann.TypeCode))
		e.emit(domain.FacetTemplateCode, ann.TypeCode[0].Code)
	}

	if c := ann.ImagingPhysicalEntityCollection; c != nil {
		for _, pe := range c.ImagingPhysicalEntity {
			e.emit(domain.FacetAnatomy, display(pe.TypeCode))
			if cc := pe.ImagingPhysicalEntityCharacteristicCollection; cc != nil {
				for _, ch := range cc.ImagingPhysicalEntityCharacteristic {
					e.emit(domain.FacetAnatomy, display(ch.TypeCode))
				}
			}
		}
	}

	if c := ann.ImagingObservationEntityCollection; c != nil {
		for _, oe := range c.ImagingObservationEntity {
			e.emit(domain.FacetObservation, display(oe.TypeCode))
			if cc := oe.ImagingObservationCharacteristicCollection; cc != nil {
				for _, ch := range cc.ImagingObservationCharacteristic {
					e.emit(domain.FacetObservation, display(ch.TypeCode))
				}
			}
			if cc := oe.ImagingPhysicalEntityCharacteristicCollection; cc != nil {
				for _, ch := range cc.ImagingPhysicalEntityCharacteristic {
					e.emit(domain.FacetObservation, display(ch.TypeCode))
				}
			}
		}
	}

	if c := ann.ImageReferenceEntityCollection; c != nil {
		for _, ref := range c.ImageReferenceEntity {
			study := ref.ImageStudy
			if study == nil {
				continue
			}
			e.emit(domain.FacetStudyDate, value(study.StartDate))
			e.emit(domain.FacetStudyUid, root(study.InstanceUid))

			series := study.ImageSeries
			if series == nil {
				continue
			}
			if series.Modality != nil && series.Modality.Code != "" {
				code := series.Modality.Code
				if code == ManualModalityCode {
					before, _, _ := strings.Cut(programmed, "/")
					code = strings.TrimSpace(before)
				}
				e.emit(domain.FacetModality, code)
			}
			if series.InstanceUid != nil {
				e.emit(domain.FacetSeriesUid, orElse(series.InstanceUid.Root, NoSeries))
			}
			if img, ok := firstImage(series); ok && img.SopInstanceUid != nil {
				e.emit(domain.FacetInstanceUid, orElse(img.SopInstanceUid.Root, NoInstance))
			}
		}
	}

	return e.facets
}

// ExtractTemplateFacets derives the listing and summary emissions of a
// template document. ok is false when the document declares no container
// or the container holds no template.
func ExtractTemplateFacets(doc domain.TemplateDocument) (domain.TemplateFacets, bool) {
	container := doc.TemplateContainer
	if container == nil || len(container.Template) == 0 {
		return domain.TemplateFacets{}, false
	}
	t0 := container.Template[0]

	typ := "image"
	if t0.TemplateType != "" {
		typ = strings.ToLower(t0.TemplateType)
	}

	summary := domain.TemplateSummary{
		ContainerUID:          container.Uid,
		ContainerName:         container.Name,
		ContainerDescription:  container.Description,
		ContainerVersion:      container.Version,
		ContainerAuthors:      container.Authors,
		ContainerCreationDate: container.CreationDate,
		Template: []domain.TemplateSummaryEntry{
			{
				Type:                 typ,
				TemplateName:         t0.Name,
				TemplateDescription:  t0.Description,
				TemplateUID:          container.Uid,
				TemplateCodeValue:    t0.CodeValue,
				TemplateCodeMeaning:  t0.CodeMeaning,
				TemplateVersion:      t0.Version,
				TemplateAuthors:      t0.Authors,
				TemplateCreationDate: t0.CreationDate,
			},
		},
	}

	return domain.TemplateFacets{
		Listing: []domain.TemplateListing{
			{Key: domain.ListingKey{Kind: typ, Code: t0.CodeValue}, Payload: doc},
			{Key: domain.ListingKey{Kind: t0.CodeValue, Code: ""}, Payload: doc},
		},
		Summary: []domain.TemplateSummaryEmission{
			{Key: domain.ListingKey{Kind: typ, Code: container.Uid}, Summary: summary},
			{Key: domain.ListingKey{Kind: t0.CodeValue, Code: ""}, Summary: summary},
		},
	}, true
}

// --- accessors tolerating absent fields ---

func value(v *domain.Value) string {
	if v == nil {
		return ""
	}
	return v.Value
}

func root(ii *domain.II) string {
	if ii == nil {
		return ""
	}
	return ii.Root
}

// display returns the human-readable display name of the first type code.
func display(tc []domain.TypeCode) string {
	if len(tc) == 0 {
		return ""
	}
	return value(tc[0].DisplayName)
}

func firstAnnotation(coll *domain.ImageAnnotationCollection) (domain.ImageAnnotation, bool) {
	if coll.ImageAnnotations == nil || len(coll.ImageAnnotations.ImageAnnotation) == 0 {
		return domain.ImageAnnotation{}, false
	}
	return coll.ImageAnnotations.ImageAnnotation[0], true
}

func firstImage(series *domain.ImageSeries) (domain.AimImage, bool) {
	if series.ImageCollection == nil || len(series.ImageCollection.Image) == 0 {
		return domain.AimImage{}, false
	}
	return series.ImageCollection.Image[0], true
}

// splitComment splits a comment value on the "~~" delimiter: the part
// before is machine-written, the part after (present only when the
// delimiter itself is) is free text.
func splitComment(comment string) (programmed string, freeText string, hasFreeText bool) {
	if comment == "" {
		return "", "", false
	}
	return strings.Cut(comment, "~~")
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if '0' <= r && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orElse(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
