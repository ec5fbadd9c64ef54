// Package openapi derives a layout page from an OpenAPI 3 operation.
// Request-body object properties become components; array-of-object
// properties become repeating groups; the x-optionlist extension binds a
// property to a remote option list.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/fieldpath"
	"github.com/goliatone/go-formflow/pkg/layout"
)

const optionListExtensionKey = "x-optionlist"

// PageFromDocument parses an OpenAPI document and converts the identified
// operation's JSON request body into a layout page named after the operation.
func PageFromDocument(ctx context.Context, raw []byte, operationID string) (layout.Page, error) {
	if err := ctx.Err(); err != nil {
		return layout.Page{}, err
	}
	if len(raw) == 0 {
		return layout.Page{}, errors.New("openapi: document payload is empty")
	}
	if strings.TrimSpace(operationID) == "" {
		return layout.Page{}, errors.New("openapi: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return layout.Page{}, fmt.Errorf("openapi: load document: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return layout.Page{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}

	schema := requestBodySchema(op)
	if schema == nil {
		return layout.Page{}, fmt.Errorf("openapi: operation %q has no JSON request body", operationID)
	}

	page := layout.Page{ID: operationID}
	page.Components = componentsFromSchema(schema, "", requiredSet(schema))
	return page, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range []*openapi3.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Patch,
		} {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestBodySchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

func requiredSet(schema *openapi3.Schema) map[string]struct{} {
	out := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		out[name] = struct{}{}
	}
	return out
}

func componentsFromSchema(schema *openapi3.Schema, bindingPrefix string, required map[string]struct{}) []layout.Component {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []layout.Component
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		binding := fieldpath.Join(bindingPrefix, name)
		_, isRequired := required[name]
		out = append(out, componentFromProperty(name, binding, ref.Value, isRequired))
	}
	return out
}

func componentFromProperty(name, binding string, schema *openapi3.Schema, required bool) layout.Component {
	component := layout.Component{
		ID:       componentID(binding),
		Required: required,
	}

	if isObjectArray(schema) {
		items := schema.Items.Value
		component.Type = layout.ComponentTypeGroup
		component.MaxCount = arrayMaxCount(schema)
		component.DataModelBindings = map[string]string{"group": binding}
		component.Children = componentsFromSchema(
			items, binding+"."+fieldpath.Indicator, requiredSet(items))
		return component
	}

	component.DataModelBindings = map[string]string{"simpleBinding": binding}
	component.Type = layout.ComponentTypeInput

	if src := optionSourceFromExtension(schema.Extensions); src != nil {
		component.Type = layout.ComponentTypeDropdown
		component.Options = src
	} else if len(schema.Enum) > 0 {
		component.Type = layout.ComponentTypeSelect
		component.Metadata = map[string]string{"options.static": staticEnum(schema.Enum)}
	}
	return component
}

func isObjectArray(schema *openapi3.Schema) bool {
	if schema.Items == nil || schema.Items.Value == nil {
		return false
	}
	if !schema.Type.Is(openapi3.TypeArray) {
		return false
	}
	return schema.Items.Value.Type.Is(openapi3.TypeObject)
}

func arrayMaxCount(schema *openapi3.Schema) int {
	if schema.MaxItems != nil && *schema.MaxItems > 0 {
		return int(*schema.MaxItems)
	}
	// Unbounded arrays still repeat; pick a generous default so
	// IsRepeatingGroup holds.
	return 99
}

func optionSourceFromExtension(extensions map[string]any) *layout.OptionSource {
	raw, ok := extensions[optionListExtensionKey].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	src := &layout.OptionSource{}
	if id, ok := raw["id"].(string); ok {
		src.ListID = strings.TrimSpace(id)
	}
	if src.ListID == "" {
		return nil
	}
	if secure, ok := raw["secure"].(bool); ok {
		src.Secure = secure
	}
	if mapping, ok := raw["mapping"].(map[string]any); ok {
		for dest, value := range mapping {
			if path, ok := value.(string); ok && path != "" {
				if src.Mapping == nil {
					src.Mapping = make(map[string]string)
				}
				src.Mapping[dest] = path
			}
		}
	}
	if params, ok := raw["queryParams"].(map[string]any); ok {
		for name, value := range params {
			if str, ok := value.(string); ok {
				if src.QueryParams == nil {
					src.QueryParams = make(map[string]string)
				}
				src.QueryParams[name] = str
			}
		}
	}
	return src
}

func staticEnum(values []any) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, fmt.Sprintf("%v", value))
	}
	return strings.Join(parts, ",")
}

func componentID(binding string) string {
	return strings.NewReplacer(".", "-", "{", "", "}", "").Replace(binding)
}
