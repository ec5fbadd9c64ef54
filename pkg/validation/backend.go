package validation

import (
	"strings"
)

// BackendIssue is one issue as delivered by the backend validation API.
type BackendIssue struct {
	Code                 string         `json:"code,omitempty"`
	Description          string         `json:"description,omitempty"`
	Field                string         `json:"field,omitempty"`
	DataElementID        string         `json:"dataElementId,omitempty"`
	Severity             int            `json:"severity"`
	Source               string         `json:"source"`
	NoIncrementalUpdates bool           `json:"noIncrementalUpdates,omitempty"`
	CustomTextKey        string         `json:"customTextKey,omitempty"`
	CustomTextParams     map[string]any `json:"customTextParams,omitempty"`
}

// MessageRenderer resolves a text-resource key with parameters into a
// display message. textresource.Store satisfies it.
type MessageRenderer interface {
	Render(key string, params map[string]any) string
}

// Categories recognised on the Source field of backend issues. Unknown
// sources fall back to the Backend category.
var sourceCategories = map[string]Category{
	"schema":        CategorySchema,
	"component":     CategoryComponent,
	"expression":    CategoryExpression,
	"custombackend": CategoryCustomBackend,
	"custom":        CategoryCustomBackend,
	"required":      CategoryRequired,
}

func categoryForSource(source string) Category {
	if category, ok := sourceCategories[strings.ToLower(strings.TrimSpace(source))]; ok {
		return category
	}
	return CategoryBackend
}

// FromBackend converts the backend validation response, keyed by validator
// name, into per-source payloads ready for State.MergeSource.
//
// Issues carrying both field and data element identity become field records;
// issues missing either degrade to task-level records so they stay visible
// even when they cannot be attributed to a node. Issues with an unknown
// severity code are skipped. A nil renderer falls back to description/code
// text.
func FromBackend(response map[string][]BackendIssue, renderer MessageRenderer) map[string]Payload {
	out := make(map[string]Payload, len(response))

	for validator, issues := range response {
		payload := Payload{}
		for _, issue := range issues {
			severity, ok := SeverityFromBackend(issue.Severity)
			if !ok {
				continue
			}

			source := issue.Source
			if strings.TrimSpace(source) == "" {
				source = validator
			}

			base := BaseValidation{
				Message:              issueMessage(issue, renderer),
				Severity:             severity,
				Category:             categoryForSource(source),
				Source:               validator,
				NoIncrementalUpdates: issue.NoIncrementalUpdates,
			}

			if issue.Field == "" || issue.DataElementID == "" {
				payload.Task = append(payload.Task, base)
				continue
			}

			if payload.DataModels == nil {
				payload.DataModels = make(map[string]map[string][]FieldValidation)
			}
			fields := payload.DataModels[issue.DataElementID]
			if fields == nil {
				fields = make(map[string][]FieldValidation)
				payload.DataModels[issue.DataElementID] = fields
			}
			fields[issue.Field] = append(fields[issue.Field], FieldValidation{
				BaseValidation: base,
				Field:          issue.Field,
				DataElementID:  issue.DataElementID,
			})
		}
		out[validator] = payload
	}

	return out
}

func issueMessage(issue BackendIssue, renderer MessageRenderer) string {
	if issue.CustomTextKey != "" && renderer != nil {
		if message := renderer.Render(issue.CustomTextKey, issue.CustomTextParams); message != "" {
			return message
		}
	}
	if issue.Description != "" {
		return issue.Description
	}
	if issue.CustomTextKey != "" {
		return issue.CustomTextKey
	}
	return issue.Code
}
