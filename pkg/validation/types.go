package validation

import "sort"

// Severity grades a validation record.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Backend severity codes. Error=1, Warning=2, Informational=3, Success=5.
const (
	backendSeverityError   = 1
	backendSeverityWarning = 2
	backendSeverityInfo    = 3
	backendSeveritySuccess = 5
)

// SeverityFromBackend maps the backend's numeric severity. The second return
// is false for unknown codes.
func SeverityFromBackend(code int) (Severity, bool) {
	switch code {
	case backendSeverityError:
		return SeverityError, true
	case backendSeverityWarning:
		return SeverityWarning, true
	case backendSeverityInfo:
		return SeverityInfo, true
	case backendSeveritySuccess:
		return SeveritySuccess, true
	default:
		return "", false
	}
}

// BaseValidation carries the attributes every record shares. Task-level
// (unassociated) validations are stored as bare BaseValidation values.
type BaseValidation struct {
	Message              string   `json:"message"`
	Severity             Severity `json:"severity"`
	Category             Category `json:"category"`
	Source               string   `json:"source"`
	NoIncrementalUpdates bool     `json:"noIncrementalUpdates,omitempty"`
}

// FieldValidation attaches a record to one field of one data element. Field
// plus DataElementID is the record's identity across incremental updates.
type FieldValidation struct {
	BaseValidation
	Field         string `json:"field"`
	DataElementID string `json:"dataElementId"`
}

// SameIssue reports whether two field records refer to the same issue.
func (v FieldValidation) SameIssue(other FieldValidation) bool {
	return v.Field == other.Field && v.DataElementID == other.DataElementID
}

// ComponentValidation attaches a record to a component binding key.
type ComponentValidation struct {
	BaseValidation
	BindingKey string `json:"bindingKey"`
}

// SameIssue reports whether two component records refer to the same issue.
func (v ComponentValidation) SameIssue(other ComponentValidation) bool {
	return v.BindingKey == other.BindingKey
}

// AttachmentValidation attaches a record to an uploaded attachment, with an
// optional per-record visibility mask.
type AttachmentValidation struct {
	BaseValidation
	AttachmentID string   `json:"attachmentId"`
	Visibility   Category `json:"visibility,omitempty"`
}

// SameIssue reports whether two attachment records refer to the same issue.
func (v AttachmentValidation) SameIssue(other AttachmentValidation) bool {
	return v.AttachmentID == other.AttachmentID
}

// SubformValidation attaches a record to a set of subform data elements.
// Identity is set equality of the ids, order-independent.
type SubformValidation struct {
	BaseValidation
	SubformDataElementIDs []string `json:"subformDataElementIds"`
}

// SameIssue reports whether two subform records refer to the same issue.
func (v SubformValidation) SameIssue(other SubformValidation) bool {
	if len(v.SubformDataElementIDs) != len(other.SubformDataElementIDs) {
		return false
	}
	a := append([]string(nil), v.SubformDataElementIDs...)
	b := append([]string(nil), other.SubformDataElementIDs...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
