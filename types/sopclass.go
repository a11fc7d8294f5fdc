package types

// Storage SOP Class UIDs a viewer reads or writes back, as defined in
// DICOM Part 4, Annex B.
// https://dicom.nema.org/medical/dicom/current/output/chtml/part04/sect_B.5.html
const (
	ComputedRadiographyImageStorage                   = "1.2.840.10008.5.1.4.1.1.1"
	DigitalXRayImageStorageForPresentation            = "1.2.840.10008.5.1.4.1.1.1.1"
	DigitalMammographyXRayImageStorageForPresentation = "1.2.840.10008.5.1.4.1.1.1.2"
	CTImageStorage                                    = "1.2.840.10008.5.1.4.1.1.2"
	EnhancedCTImageStorage                            = "1.2.840.10008.5.1.4.1.1.2.1"
	UltrasoundMultiFrameImageStorage                  = "1.2.840.10008.5.1.4.1.1.3.1"
	MRImageStorage                                    = "1.2.840.10008.5.1.4.1.1.4"
	EnhancedMRImageStorage                            = "1.2.840.10008.5.1.4.1.1.4.1"
	UltrasoundImageStorage                            = "1.2.840.10008.5.1.4.1.1.6.1"
	SecondaryCaptureImageStorage                      = "1.2.840.10008.5.1.4.1.1.7"
	XRayAngiographicImageStorage                      = "1.2.840.10008.5.1.4.1.1.12.1"
	NuclearMedicineImageStorage                       = "1.2.840.10008.5.1.4.1.1.20"
	PositronEmissionTomographyImageStorage            = "1.2.840.10008.5.1.4.1.1.128"
	SegmentationStorage                               = "1.2.840.10008.5.1.4.1.1.66.4"
	VLWholeSlideMicroscopyImageStorage                = "1.2.840.10008.5.1.4.1.1.77.1.6"
	GrayscaleSoftcopyPresentationStateStorage         = "1.2.840.10008.5.1.4.1.1.11.1"
	EncapsulatedPDFStorage                            = "1.2.840.10008.5.1.4.1.1.104.1"
	RTStructureSetStorage                             = "1.2.840.10008.5.1.4.1.1.481.3"
)

// Structured report storage classes. Measurements are written back as one
// of these.
const (
	BasicTextSRStorage         = "1.2.840.10008.5.1.4.1.1.88.11"
	EnhancedSRStorage          = "1.2.840.10008.5.1.4.1.1.88.22"
	ComprehensiveSRStorage     = "1.2.840.10008.5.1.4.1.1.88.33"
	Comprehensive3DSRStorage   = "1.2.840.10008.5.1.4.1.1.88.34"
	KeyObjectSelectionDocument = "1.2.840.10008.5.1.4.1.1.88.59"
)

// SOP class categories.
const (
	CategoryImage             = "Image"
	CategoryStructuredReport  = "Structured Report"
	CategoryPresentationState = "Presentation State"
	CategoryDocument          = "Document"
	CategoryUnknown           = "Unknown"
)

// SOPClassInfo provides human-readable information about a SOP Class UID
type SOPClassInfo struct {
	UID      string
	Name     string
	Category string
}

// GetSOPClassInfo returns information about a SOP Class UID
func GetSOPClassInfo(uid string) *SOPClassInfo {
	info, ok := sopClassRegistry[uid]
	if !ok {
		return &SOPClassInfo{
			UID:      uid,
			Name:     "Unknown",
			Category: CategoryUnknown,
		}
	}
	info.UID = uid
	return &info
}

// IsStorageSOPClass returns true if the UID is a known storage SOP class
func IsStorageSOPClass(uid string) bool {
	return GetSOPClassInfo(uid).Category != CategoryUnknown
}

// IsStructuredReport returns true if the UID is a structured report class
func IsStructuredReport(uid string) bool {
	return GetSOPClassInfo(uid).Category == CategoryStructuredReport
}

var sopClassRegistry = map[string]SOPClassInfo{
	ComputedRadiographyImageStorage:                   {Name: "Computed Radiography Image Storage", Category: CategoryImage},
	DigitalXRayImageStorageForPresentation:            {Name: "Digital X-Ray Image Storage - For Presentation", Category: CategoryImage},
	DigitalMammographyXRayImageStorageForPresentation: {Name: "Digital Mammography X-Ray Image Storage - For Presentation", Category: CategoryImage},
	CTImageStorage:                         {Name: "CT Image Storage", Category: CategoryImage},
	EnhancedCTImageStorage:                 {Name: "Enhanced CT Image Storage", Category: CategoryImage},
	UltrasoundMultiFrameImageStorage:       {Name: "Ultrasound Multi-frame Image Storage", Category: CategoryImage},
	MRImageStorage:                         {Name: "MR Image Storage", Category: CategoryImage},
	EnhancedMRImageStorage:                 {Name: "Enhanced MR Image Storage", Category: CategoryImage},
	UltrasoundImageStorage:                 {Name: "Ultrasound Image Storage", Category: CategoryImage},
	SecondaryCaptureImageStorage:           {Name: "Secondary Capture Image Storage", Category: CategoryImage},
	XRayAngiographicImageStorage:           {Name: "X-Ray Angiographic Image Storage", Category: CategoryImage},
	NuclearMedicineImageStorage:            {Name: "Nuclear Medicine Image Storage", Category: CategoryImage},
	PositronEmissionTomographyImageStorage: {Name: "Positron Emission Tomography Image Storage", Category: CategoryImage},
	SegmentationStorage:                    {Name: "Segmentation Storage", Category: CategoryImage},
	VLWholeSlideMicroscopyImageStorage:     {Name: "VL Whole Slide Microscopy Image Storage", Category: CategoryImage},
	RTStructureSetStorage:                  {Name: "RT Structure Set Storage", Category: CategoryImage},

	GrayscaleSoftcopyPresentationStateStorage: {Name: "Grayscale Softcopy Presentation State Storage", Category: CategoryPresentationState},
	EncapsulatedPDFStorage:                    {Name: "Encapsulated PDF Storage", Category: CategoryDocument},

	BasicTextSRStorage:         {Name: "Basic Text SR Storage", Category: CategoryStructuredReport},
	EnhancedSRStorage:          {Name: "Enhanced SR Storage", Category: CategoryStructuredReport},
	ComprehensiveSRStorage:     {Name: "Comprehensive SR Storage", Category: CategoryStructuredReport},
	Comprehensive3DSRStorage:   {Name: "Comprehensive 3D SR Storage", Category: CategoryStructuredReport},
	KeyObjectSelectionDocument: {Name: "Key Object Selection Document Storage", Category: CategoryStructuredReport},
}
