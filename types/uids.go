package types

// Uncompressed transfer syntaxes.
// https://dicom.nema.org/medical/dicom/current/output/chtml/part05/chapter_8.html
const (
	// ImplicitVRLittleEndian - Default Transfer Syntax for DICOM
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"

	// ExplicitVRLittleEndian - the only syntax Part10 files are written in
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
)

// File meta information identifying this implementation as the writer.
const (
	ImplementationClassUID    = "2.25.270695996825855179949881587723571202391.2.0.0"
	ImplementationVersionName = "OHIF-VIEWER-2.0.0"
)

// FileMetaInformationVersion is written when the dataset does not carry one.
var FileMetaInformationVersion = []byte{0x00, 0x01}

// TransferSyntaxName returns a readable name for the uncompressed syntaxes.
func TransferSyntaxName(uid string) string {
	switch uid {
	case ImplicitVRLittleEndian:
		return "Implicit VR Little Endian"
	case ExplicitVRLittleEndian:
		return "Explicit VR Little Endian"
	default:
		return "Unknown"
	}
}
