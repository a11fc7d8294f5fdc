// Package types contains the study/series/instance model and the DICOM
// vocabulary shared by the other packages.
package types

// VR (Value Representation) constants for DICOM data elements
const (
	VR_AE = "AE" // Application Entity
	VR_AS = "AS" // Age String
	VR_AT = "AT" // Attribute Tag
	VR_CS = "CS" // Code String
	VR_DA = "DA" // Date
	VR_DS = "DS" // Decimal String
	VR_DT = "DT" // Date Time
	VR_FL = "FL" // Floating Point Single
	VR_FD = "FD" // Floating Point Double
	VR_IS = "IS" // Integer String
	VR_LO = "LO" // Long String
	VR_LT = "LT" // Long Text
	VR_OB = "OB" // Other Byte
	VR_OD = "OD" // Other Double
	VR_OF = "OF" // Other Float
	VR_OL = "OL" // Other Long
	VR_OV = "OV" // Other Very Long
	VR_OW = "OW" // Other Word
	VR_PN = "PN" // Person Name
	VR_SH = "SH" // Short String
	VR_SL = "SL" // Signed Long
	VR_SQ = "SQ" // Sequence of Items
	VR_SS = "SS" // Signed Short
	VR_ST = "ST" // Short Text
	VR_SV = "SV" // Signed Very Long
	VR_TM = "TM" // Time
	VR_UC = "UC" // Unlimited Characters
	VR_UI = "UI" // Unique Identifier
	VR_UL = "UL" // Unsigned Long
	VR_UN = "UN" // Unknown
	VR_UR = "UR" // Universal Resource
	VR_US = "US" // Unsigned Short
	VR_UT = "UT" // Unlimited Text
	VR_UV = "UV" // Unsigned Very Long
)

// Value representations by the Go type the attribute codec stores them as.
var (
	stringVRs = map[string]bool{
		VR_AE: true, VR_AS: true, VR_CS: true, VR_DA: true, VR_DS: true,
		VR_DT: true, VR_IS: true, VR_LO: true, VR_LT: true, VR_PN: true,
		VR_SH: true, VR_ST: true, VR_TM: true, VR_UC: true, VR_UI: true,
		VR_UR: true, VR_UT: true,
	}
	intVRs = map[string]bool{
		VR_SL: true, VR_SS: true, VR_SV: true, VR_UL: true, VR_US: true, VR_UV: true,
	}
	floatVRs = map[string]bool{
		VR_FD: true, VR_FL: true,
	}
	binaryVRs = map[string]bool{
		VR_OB: true, VR_OD: true, VR_OF: true, VR_OL: true, VR_OV: true,
		VR_OW: true, VR_UN: true,
	}
)

// IsStringVR reports whether values of vr are encoded as text.
func IsStringVR(vr string) bool { return stringVRs[vr] }

// IsIntVR reports whether values of vr are binary integers.
func IsIntVR(vr string) bool { return intVRs[vr] }

// IsFloatVR reports whether values of vr are binary floating point numbers.
func IsFloatVR(vr string) bool { return floatVRs[vr] }

// IsBinaryVR reports whether values of vr are opaque byte strings.
func IsBinaryVR(vr string) bool { return binaryVRs[vr] }

// IsNumericStringVR reports whether vr is text that naturalizes to a number.
func IsNumericStringVR(vr string) bool { return vr == VR_DS || vr == VR_IS }
