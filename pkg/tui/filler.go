// Package tui drives a form session from the terminal. The filler walks the
// layout page by page, prompting through a PromptDriver, writing answers into
// the form-data store so the engine's refetch reactor keeps dependent option
// lists current between prompts.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/fieldpath"
	"github.com/goliatone/go-formflow/pkg/layout"
	"github.com/goliatone/go-formflow/pkg/optionlist"
)

// MetadataStaticOptions is the component metadata key carrying inline options
// as a comma-separated list of values.
const MetadataStaticOptions = "options.static"

// Option configures the filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver used by the filler.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithPageSize caps how many options select prompts display at once.
func WithPageSize(size int) Option {
	return func(f *Filler) {
		if size > 0 {
			f.pageSize = size
		}
	}
}

// Filler prompts for every component in the engine's layout and records the
// answers in the engine's form data.
type Filler struct {
	engine   *engine.Engine
	driver   PromptDriver
	pageSize int
}

// New constructs a filler around a started engine. Defaults to the survey
// driver when none is injected.
func New(eng *engine.Engine, options ...Option) (*Filler, error) {
	if eng == nil {
		return nil, errors.New("tui: engine is required")
	}
	f := &Filler{
		engine: eng,
		driver: newSurveyDriver(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f, nil
}

// Run walks every page in order and prompts for each component. It returns
// ErrAborted when the user interrupts a prompt.
func (f *Filler) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	for _, page := range f.engine.Layout().Pages {
		if err := f.driver.Info(ctx, fmt.Sprintf("-- %s --", page.ID)); err != nil {
			return err
		}
		for i := range page.Components {
			if err := f.fill(ctx, &page.Components[i], nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Filler) fill(ctx context.Context, component *layout.Component, indices []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if component.ReadOnly {
		return nil
	}

	switch {
	case component.IsRepeatingGroup():
		return f.fillRepeatingGroup(ctx, component, indices)
	case component.Type == layout.ComponentTypeGroup:
		return f.fillChildren(ctx, component.Children, indices)
	case component.HasOptionSource():
		return f.fillFromOptionList(ctx, component, indices)
	case component.Metadata[MetadataStaticOptions] != "":
		return f.fillFromStaticOptions(ctx, component, indices)
	default:
		return f.fillInput(ctx, component, indices)
	}
}

func (f *Filler) fillChildren(ctx context.Context, children []layout.Component, indices []int) error {
	for i := range children {
		if err := f.fill(ctx, &children[i], indices); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillRepeatingGroup(ctx context.Context, component *layout.Component, indices []int) error {
	binding := component.GroupBinding()
	if binding == "" {
		return fmt.Errorf("tui: repeating group %q has no group binding", component.ID)
	}

	for row := 0; ; row++ {
		if err := f.fillChildren(ctx, component.Children, append(indices, row)); err != nil {
			return err
		}
		if component.MaxCount > 0 && row+1 >= component.MaxCount {
			return nil
		}
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add another %s entry?", component.ID),
			Default: false,
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// fillFromOptionList resolves the concrete lookup key for the current row
// indices, drains in-flight fetches, and presents whatever the store holds.
// A list that is missing or failed degrades to a free text input so the
// session can still complete.
func (f *Filler) fillFromOptionList(ctx context.Context, component *layout.Component, indices []int) error {
	binding, err := f.concretePath(component.SimpleBinding(), indices)
	if err != nil {
		return fmt.Errorf("tui: component %q: %w", component.ID, err)
	}

	mapping := make(map[string]string, len(component.Options.Mapping))
	for dest, path := range component.Options.Mapping {
		concrete, err := f.concretePath(path, indices)
		if err != nil {
			return fmt.Errorf("tui: component %q mapping %q: %w", component.ID, dest, err)
		}
		mapping[dest] = concrete
	}
	key := optionlist.NewKey(component.Options.ListID, mapping)

	f.engine.Wait()
	entry, ok := f.engine.OptionLists().Get(key)
	if !ok || entry.Status != optionlist.StatusDone || len(entry.Items) == 0 {
		if err := f.driver.Info(ctx, fmt.Sprintf("options for %s are unavailable, enter a value", component.ID)); err != nil {
			return err
		}
		return f.fillInput(ctx, component, indices)
	}

	labels := make([]string, len(entry.Items))
	for i, item := range entry.Items {
		labels[i] = itemLabel(item)
	}

	if component.Type == layout.ComponentTypeCheckboxes {
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  component.ID,
			Options:  labels,
			PageSize: f.pageSize,
		})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			values = append(values, entry.Items[idx].Value)
		}
		return f.set(binding, strings.Join(values, ","))
	}

	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      component.ID,
		Options:      labels,
		DefaultIndex: f.currentIndex(binding, entry.Items),
		PageSize:     f.pageSize,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(entry.Items) {
		return fmt.Errorf("tui: component %q: selection out of range", component.ID)
	}
	return f.set(binding, entry.Items[idx].Value)
}

func (f *Filler) fillFromStaticOptions(ctx context.Context, component *layout.Component, indices []int) error {
	binding, err := f.concretePath(component.SimpleBinding(), indices)
	if err != nil {
		return fmt.Errorf("tui: component %q: %w", component.ID, err)
	}
	values := strings.Split(component.Metadata[MetadataStaticOptions], ",")

	if component.Type == layout.ComponentTypeCheckboxes {
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  component.ID,
			Options:  values,
			PageSize: f.pageSize,
		})
		if err != nil {
			return err
		}
		selected := make([]string, 0, len(picked))
		for _, idx := range picked {
			selected = append(selected, values[idx])
		}
		return f.set(binding, strings.Join(selected, ","))
	}

	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:  component.ID,
		Options:  values,
		PageSize: f.pageSize,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return fmt.Errorf("tui: component %q: selection out of range", component.ID)
	}
	return f.set(binding, values[idx])
}

func (f *Filler) fillInput(ctx context.Context, component *layout.Component, indices []int) error {
	binding, err := f.concretePath(component.SimpleBinding(), indices)
	if err != nil {
		return fmt.Errorf("tui: component %q: %w", component.ID, err)
	}
	if binding == "" {
		return nil
	}

	cfg := InputConfig{
		Message: component.ID,
		Default: f.currentValue(binding),
	}
	if component.Required {
		cfg.Validator = func(value string) error {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("%s is required", component.ID)
			}
			return nil
		}
	}

	value, err := f.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	return f.set(binding, value)
}

func (f *Filler) set(binding, value string) error {
	if binding == "" {
		return nil
	}
	return f.engine.FormData().Set(binding, value)
}

func (f *Filler) currentValue(binding string) string {
	value, ok := f.engine.FormData().Get(binding)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

func (f *Filler) currentIndex(binding string, items []optionlist.Item) int {
	current := f.currentValue(binding)
	if current == "" {
		return -1
	}
	for i, item := range items {
		if item.Value == current {
			return i
		}
	}
	return -1
}

// concretePath substitutes the trailing row indices into a templated path.
// Paths without placeholders pass through unchanged.
func (f *Filler) concretePath(path string, indices []int) (string, error) {
	if path == "" || !fieldpath.HasIndicators(path) {
		return path, nil
	}
	arity := 0
	for _, segment := range fieldpath.Split(path) {
		if fieldpath.IsIndicator(segment) {
			arity++
		}
	}
	if arity > len(indices) {
		return "", fmt.Errorf("path %q needs %d row indices, have %d", path, arity, len(indices))
	}
	return fieldpath.ReplaceIndicators(path, indices[len(indices)-arity:])
}

func itemLabel(item optionlist.Item) string {
	if strings.TrimSpace(item.Label) != "" {
		return item.Label
	}
	return item.Value
}
