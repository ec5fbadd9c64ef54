package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/validation"
)

func fieldRecord(source, field, element, message string) validation.FieldValidation {
	return validation.FieldValidation{
		BaseValidation: validation.BaseValidation{
			Message:  message,
			Severity: validation.SeverityError,
			Category: validation.CategorySchema,
			Source:   source,
		},
		Field:         field,
		DataElementID: element,
	}
}

func payloadFor(records ...validation.FieldValidation) validation.Payload {
	payload := validation.Payload{DataModels: make(map[string]map[string][]validation.FieldValidation)}
	for _, record := range records {
		fields := payload.DataModels[record.DataElementID]
		if fields == nil {
			fields = make(map[string][]validation.FieldValidation)
			payload.DataModels[record.DataElementID] = fields
		}
		fields[record.Field] = append(fields[record.Field], record)
	}
	return payload
}

func TestMergeReplacesOnlyOwnSource(t *testing.T) {
	state := validation.NewState()

	if err := state.MergeSource("schema", payloadFor(
		fieldRecord("schema", "persons.0.name", "el1", "too long"),
	)); err != nil {
		t.Fatalf("merge schema: %v", err)
	}
	if err := state.MergeSource("backend", payloadFor(
		fieldRecord("backend", "persons.0.name", "el1", "rejected"),
	)); err != nil {
		t.Fatalf("merge backend: %v", err)
	}

	all := validation.MaskVisibility(validation.CategoryAllIncludingBackend)
	if got := len(state.Field("el1", "persons.0.name", all)); got != 2 {
		t.Fatalf("records = %d, want 2", got)
	}

	// Re-merge schema with a different payload: its first record must vanish,
	// backend's record must survive.
	if err := state.MergeSource("schema", payloadFor(
		fieldRecord("schema", "persons.0.age", "el1", "negative"),
	)); err != nil {
		t.Fatalf("re-merge schema: %v", err)
	}

	name := state.Field("el1", "persons.0.name", all)
	if len(name) != 1 || name[0].Source != "backend" {
		t.Fatalf("persons.0.name records = %+v", name)
	}
	age := state.Field("el1", "persons.0.age", all)
	if len(age) != 1 || age[0].Message != "negative" {
		t.Fatalf("persons.0.age records = %+v", age)
	}
}

func TestMergeTwiceLeavesNoFirstPayloadRecords(t *testing.T) {
	state := validation.NewState()
	source := "expression"

	first := validation.Payload{Task: []validation.BaseValidation{
		{Message: "first", Severity: validation.SeverityError, Category: validation.CategoryExpression, Source: source},
		{Message: "also first", Severity: validation.SeverityWarning, Category: validation.CategoryExpression, Source: source},
	}}
	second := validation.Payload{Task: []validation.BaseValidation{
		{Message: "second", Severity: validation.SeverityError, Category: validation.CategoryExpression, Source: source},
	}}

	if err := state.MergeSource(source, first); err != nil {
		t.Fatalf("merge first: %v", err)
	}
	if err := state.MergeSource(source, second); err != nil {
		t.Fatalf("merge second: %v", err)
	}

	task := state.Task(validation.MaskVisibility(validation.CategoryAllIncludingBackend))
	want := second.Task
	if diff := cmp.Diff(want, task); diff != "" {
		t.Fatalf("task records mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEmptyPayloadClearsSource(t *testing.T) {
	state := validation.NewState()
	if err := state.MergeSource("schema", payloadFor(
		fieldRecord("schema", "f", "el1", "bad"),
	)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := state.MergeSource("schema", validation.Payload{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := state.Sources(); len(got) != 0 {
		t.Fatalf("sources = %v, want none", got)
	}
}

func TestMergeRejectsCombinationCategory(t *testing.T) {
	state := validation.NewState()
	err := state.MergeSource("schema", validation.Payload{Task: []validation.BaseValidation{
		{Message: "bad", Severity: validation.SeverityError, Category: validation.CategoryAll, Source: "schema"},
	}})
	if err == nil {
		t.Fatal("expected combination-category rejection")
	}
}

func TestMergeRejectsForeignSourceRecords(t *testing.T) {
	state := validation.NewState()
	err := state.MergeSource("schema", validation.Payload{Task: []validation.BaseValidation{
		{Message: "sneaky", Severity: validation.SeverityError, Category: validation.CategorySchema, Source: "backend"},
	}})
	if err == nil {
		t.Fatal("expected source mismatch rejection")
	}
}

func TestHasErrors(t *testing.T) {
	state := validation.NewState()
	_ = state.MergeSource("required", validation.Payload{Task: []validation.BaseValidation{
		{Message: "fill it", Severity: validation.SeverityError, Category: validation.CategoryRequired, Source: "required"},
	}})

	if state.HasErrors(validation.VisibilityVisible) {
		t.Error("required errors must be masked under the visible query")
	}
	if !state.HasErrors(validation.VisibilityShowAll) {
		t.Error("required errors must surface under showAll")
	}
}

func TestSubformIdentityIsSetEqual(t *testing.T) {
	a := validation.SubformValidation{SubformDataElementIDs: []string{"x", "y"}}
	b := validation.SubformValidation{SubformDataElementIDs: []string{"y", "x"}}
	c := validation.SubformValidation{SubformDataElementIDs: []string{"x", "z"}}

	if !a.SameIssue(b) {
		t.Error("order must not affect subform identity")
	}
	if a.SameIssue(c) {
		t.Error("different id sets must not be the same issue")
	}
}

func TestFieldIdentity(t *testing.T) {
	a := fieldRecord("s", "f", "el1", "m")
	b := fieldRecord("other", "f", "el1", "different message")
	c := fieldRecord("s", "f", "el2", "m")

	if !a.SameIssue(b) {
		t.Error("identity is field+dataElementId, not message or source")
	}
	if a.SameIssue(c) {
		t.Error("different data elements are different issues")
	}
}
