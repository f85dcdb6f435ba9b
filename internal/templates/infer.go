package templates

import (
	"strings"
	"unicode"
)

// Data types assigned to templates
const (
	DataAttribute = "Attribute"
	DataReference = "Reference"
	DataClinical  = "Clinical data"
	DataMetadata  = "Metadata"
	DataUnknown   = "Unknown"
)

// Species labels
const (
	SpeciesHuman        = "Human"
	SpeciesMouse        = "Mouse"
	SpeciesAnimalModel  = "Animal model"
	SpeciesMulti        = "Multi-species"
	SpeciesNotSpecified = "Not specified"
)

// Configured roles as written in the template CSV
const (
	RoleAnnotation = "Annotation"
	RoleRecord     = "Record"
	RoleNone       = "N/A"
)

// File types
const (
	FileTypeNone       = "N/A"
	FileTypeDocument   = "Document"
	FileTypeFASTQ      = "FASTQ"
	FileTypeVCF        = "VCF"
	FileTypeExpression = "Expression matrix"
	FileTypeAlignment  = "BAM/CRAM"
	FileTypeIDAT       = "IDAT"
	FileTypeImage      = "Image files (DICOM/TIFF/etc.)"
	FileTypeMassSpec   = "Mass spec data"
	FileTypeFCS        = "FCS"
	FileTypeProcessed  = "Processed data"
	FileTypePDF        = "PDF/Document"
	FileTypeVarious    = "Various"
)

var (
	attributeKeywords = []string{"age", "dose", "depth", "length", "distance", "timepoint", "datatype", "workflow"}
	referenceKeywords = []string{"portal", "publication"}
	clinicalKeywords  = []string{"clinical", "patient", "participant", "biospecimen", "individual", "cohort", "demographics", "epidemiology"}
	assayKeywords     = []string{"assay", "template", "sequencing", "imaging", "proteomics", "genomics", "epigenetics", "methylation", "microscopy"}
	documentKeywords  = []string{"protocol", "documentation", "report", "code"}
	sequencingMarkers = []string{"wgs", "wes", "rnaseq", "rna-seq", "scrna", "chip-seq", "chipseq"}

	annotationRoles = map[string]bool{"annotation": true, "file": true, "file_annotation": true, "fileonly": true, "file_only": true}
	recordRoles     = map[string]bool{"record": true, "record_submission": true, "recordonly": true, "record_only": true, "table": true}
)

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// InferSpecies guesses the species a template describes from its text.
// Non-human mentions win over human ones; a Species dependency with no
// mention means the template covers several species.
func InferSpecies(t Template) string {
	text := strings.ToLower(strings.Join([]string{t.Comment, t.Label, t.DisplayName}, " "))

	switch {
	case containsAny(text, "non_human", "nonhuman", "non-human"):
		return SpeciesAnimalModel
	case containsAny(text, "human", "patient", "participant"):
		return SpeciesHuman
	case containsAny(text, "mouse", "mice"):
		return SpeciesMouse
	case strings.Contains(text, "animal"):
		return SpeciesAnimalModel
	case t.hasSpeciesDependency():
		return SpeciesMulti
	default:
		return SpeciesNotSpecified
	}
}

// NormalizeConfigRole maps a template config role onto the labels used in
// the template CSV. Unknown roles are title-cased.
func NormalizeConfigRole(raw string) string {
	if raw == "" {
		return RoleNone
	}
	lower := strings.ToLower(raw)
	switch {
	case annotationRoles[lower]:
		return RoleAnnotation
	case recordRoles[lower]:
		return RoleRecord
	}
	return titleCase(strings.ReplaceAll(raw, "_", " "))
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// InferFileType guesses the file format a template's files have from its
// name
func InferFileType(name string) string {
	name = strings.ToLower(name)

	switch {
	case containsAny(name, sequencingMarkers...):
		if !containsAny(name, "processed", "aligned") {
			return FileTypeFASTQ
		}
		switch {
		case strings.Contains(name, "variant"):
			return FileTypeVCF
		case strings.Contains(name, "expression"):
			return FileTypeExpression
		default:
			return FileTypeAlignment
		}
	case containsAny(name, "methylation", "epigenetic"):
		if strings.Contains(name, "array") {
			return FileTypeIDAT
		}
		return FileTypeFASTQ
	case containsAny(name, "imaging", "mri"):
		return FileTypeImage
	case strings.Contains(name, "proteomics"):
		return FileTypeMassSpec
	case containsAny(name, "facs", "flow"):
		return FileTypeFCS
	case strings.Contains(name, "processed"):
		return FileTypeProcessed
	case containsAny(name, "protocol", "report"):
		return FileTypePDF
	}
	return FileTypeVarious
}

// HeuristicTypeAndFileType classifies a template by keywords in its lower
// cased label, comment and display name.
func HeuristicTypeAndFileType(label, comment, displayName string) (dataType, fileType string) {
	var parts []string
	for _, p := range []string{label, comment, displayName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	text := strings.Join(parts, " ")

	switch {
	case containsAny(label, attributeKeywords...):
		return DataAttribute, FileTypeNone
	case containsAny(label, referenceKeywords...):
		return DataReference, FileTypeNone
	case containsAny(text, clinicalKeywords...):
		return DataClinical, FileTypeNone
	case containsAny(text, "metadata", "annotation"):
		return DataMetadata, InferFileType(firstNonEmpty(label, displayName))
	case containsAny(text, assayKeywords...):
		return DataMetadata, InferFileType(label)
	case containsAny(text, documentKeywords...):
		return DataMetadata, FileTypeDocument
	case strings.Contains(text, "processed"):
		return DataMetadata, InferFileType(label)
	}
	return DataUnknown, FileTypeNone
}

// Classify decides the data type, file type and configured role of t. A
// matching manifest schema in cfg takes priority; otherwise, and for roles
// other than Annotation and Record, the keyword heuristics apply.
func Classify(t Template, cfg *Config) (dataType, fileType, role string) {
	label := strings.ToLower(t.Label)
	comment := strings.ToLower(t.Comment)
	display := strings.ToLower(t.DisplayName)

	role = RoleNone
	fileType = FileTypeNone

	if schema, ok := cfg.Match(t); ok {
		role = NormalizeConfigRole(schema.Role())
		switch role {
		case RoleAnnotation:
			dataType = DataMetadata
			fileType = InferFileType(firstNonEmpty(strings.ToLower(schema.DisplayName), label))
		case RoleRecord:
			dataType = DataClinical
		}
	}

	if dataType == "" {
		dataType, fileType = HeuristicTypeAndFileType(label, comment, display)
	}
	if dataType == DataMetadata && fileType == FileTypeNone {
		fileType = InferFileType(firstNonEmpty(label, display))
	}
	return dataType, fileType, role
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
