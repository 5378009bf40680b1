package domain

// Types below model the AIM (Annotation and Image Markup) export format.
// The documents are externally authored and loosely populated: every nested
// block is optional, so each is a pointer and absence never is an error.
// Field tags follow the wire names of the source format verbatim, including
// the "iso:" prefixed display names.

type AimDocument struct {
	ImageAnnotationCollection *ImageAnnotationCollection `json:"ImageAnnotationCollection,omitempty"`
}

type ImageAnnotationCollection struct {
	UniqueIdentifier *II               `json:"uniqueIdentifier,omitempty"`
	Person           *Person           `json:"person,omitempty"`
	User             *AimUser          `json:"user,omitempty"`
	DateTime         *Value            `json:"dateTime,omitempty"`
	ImageAnnotations *ImageAnnotations `json:"imageAnnotations,omitempty"`
}

// Value is the ubiquitous {"value": ...} wrapper of the format.
type Value struct {
	Value string `json:"value"`
}

// II is an instance identifier, {"root": "<uid>"}.
type II struct {
	Root string `json:"root"`
}

type Person struct {
	Name *Value `json:"name,omitempty"`
	Id   *Value `json:"id,omitempty"`
}

type AimUser struct {
	LoginName *Value `json:"loginName,omitempty"`
}

type ImageAnnotations struct {
	ImageAnnotation []ImageAnnotation `json:"ImageAnnotation,omitempty"`
}

type ImageAnnotation struct {
	Name                               *Value                              `json:"name,omitempty"`
	Comment                            *Value                              `json:"comment,omitempty"`
	TypeCode                           []TypeCode                          `json:"typeCode,omitempty"`
	ImagingPhysicalEntityCollection    *ImagingPhysicalEntityCollection    `json:"imagingPhysicalEntityCollection,omitempty"`
	ImagingObservationEntityCollection *ImagingObservationEntityCollection `json:"imagingObservationEntityCollection,omitempty"`
	ImageReferenceEntityCollection     *ImageReferenceEntityCollection     `json:"imageReferenceEntityCollection,omitempty"`
}

type TypeCode struct {
	Code           string `json:"code,omitempty"`
	CodeSystemName string `json:"codeSystemName,omitempty"`
	DisplayName    *Value `json:"iso:displayName,omitempty"`
}

type ImagingPhysicalEntityCollection struct {
	ImagingPhysicalEntity []ImagingPhysicalEntity `json:"ImagingPhysicalEntity,omitempty"`
}

type ImagingPhysicalEntity struct {
	TypeCode                                      []TypeCode                                     `json:"typeCode,omitempty"`
	ImagingPhysicalEntityCharacteristicCollection *ImagingPhysicalEntityCharacteristicCollection `json:"imagingPhysicalEntityCharacteristicCollection,omitempty"`
}

type ImagingPhysicalEntityCharacteristicCollection struct {
	ImagingPhysicalEntityCharacteristic []ImagingPhysicalEntityCharacteristic `json:"ImagingPhysicalEntityCharacteristic,omitempty"`
}

type ImagingPhysicalEntityCharacteristic struct {
	TypeCode []TypeCode `json:"typeCode,omitempty"`
}

type ImagingObservationEntityCollection struct {
	ImagingObservationEntity []ImagingObservationEntity `json:"ImagingObservationEntity,omitempty"`
}

type ImagingObservationEntity struct {
	TypeCode                                      []TypeCode                                     `json:"typeCode,omitempty"`
	ImagingObservationCharacteristicCollection    *ImagingObservationCharacteristicCollection    `json:"imagingObservationCharacteristicCollection,omitempty"`
	ImagingPhysicalEntityCharacteristicCollection *ImagingPhysicalEntityCharacteristicCollection `json:"imagingPhysicalEntityCharacteristicCollection,omitempty"`
}

type ImagingObservationCharacteristicCollection struct {
	ImagingObservationCharacteristic []ImagingObservationCharacteristic `json:"ImagingObservationCharacteristic,omitempty"`
}

type ImagingObservationCharacteristic struct {
	TypeCode []TypeCode `json:"typeCode,omitempty"`
}

type ImageReferenceEntityCollection struct {
	ImageReferenceEntity []ImageReferenceEntity `json:"ImageReferenceEntity,omitempty"`
}

type ImageReferenceEntity struct {
	ImageStudy *ImageStudy `json:"imageStudy,omitempty"`
}

type ImageStudy struct {
	StartDate   *Value       `json:"startDate,omitempty"`
	InstanceUid *II          `json:"instanceUid,omitempty"`
	ImageSeries *ImageSeries `json:"imageSeries,omitempty"`
}

type ImageSeries struct {
	Modality        *Modality        `json:"modality,omitempty"`
	InstanceUid     *II              `json:"instanceUid,omitempty"`
	ImageCollection *ImageCollection `json:"imageCollection,omitempty"`
}

type Modality struct {
	Code           string `json:"code,omitempty"`
	CodeSystemName string `json:"codeSystemName,omitempty"`
}

type ImageCollection struct {
	Image []AimImage `json:"Image,omitempty"`
}

type AimImage struct {
	SopClassUid    *II `json:"sopClassUid,omitempty"`
	SopInstanceUid *II `json:"sopInstanceUid,omitempty"`
}

// AimUid returns the collection's unique identifier, or "" when absent.
func (d AimDocument) AimUid() string {
	if d.ImageAnnotationCollection == nil || d.ImageAnnotationCollection.UniqueIdentifier == nil {
		return ""
	}
	return d.ImageAnnotationCollection.UniqueIdentifier.Root
}

// SubjectId returns the annotated person's id, or "" when absent.
func (d AimDocument) SubjectId() string {
	if d.ImageAnnotationCollection == nil ||
		d.ImageAnnotationCollection.Person == nil ||
		d.ImageAnnotationCollection.Person.Id == nil {
		return ""
	}
	return d.ImageAnnotationCollection.Person.Id.Value
}

func (d AimDocument) firstImageStudy() *ImageStudy {
	if d.ImageAnnotationCollection == nil || d.ImageAnnotationCollection.ImageAnnotations == nil {
		return nil
	}
	for _, ia := range d.ImageAnnotationCollection.ImageAnnotations.ImageAnnotation {
		if ia.ImageReferenceEntityCollection == nil {
			continue
		}
		for _, re := range ia.ImageReferenceEntityCollection.ImageReferenceEntity {
			if re.ImageStudy != nil {
				return re.ImageStudy
			}
		}
	}
	return nil
}

// StudyUid returns the uid of the first referenced study, or "" when absent.
func (d AimDocument) StudyUid() string {
	if s := d.firstImageStudy(); s != nil && s.InstanceUid != nil {
		return s.InstanceUid.Root
	}
	return ""
}

// SeriesUid returns the uid of the first referenced series, or "" when absent.
func (d AimDocument) SeriesUid() string {
	if s := d.firstImageStudy(); s != nil && s.ImageSeries != nil && s.ImageSeries.InstanceUid != nil {
		return s.ImageSeries.InstanceUid.Root
	}
	return ""
}

// UserLoginName returns the authoring user's login name, or "" when absent.
func (d AimDocument) UserLoginName() string {
	if d.ImageAnnotationCollection == nil ||
		d.ImageAnnotationCollection.User == nil ||
		d.ImageAnnotationCollection.User.LoginName == nil {
		return ""
	}
	return d.ImageAnnotationCollection.User.LoginName.Value
}
