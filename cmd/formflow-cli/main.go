package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/layout"
	"github.com/goliatone/go-formflow/pkg/layout/openapi"
	"github.com/goliatone/go-formflow/pkg/textresource"
	"github.com/goliatone/go-formflow/pkg/tui"
)

func main() {
	layoutDir := flag.String("layouts", "", "directory of layout pages (JSON or YAML)")
	openapiDoc := flag.String("openapi", "", "OpenAPI document to derive a layout page from")
	operation := flag.String("operation", "", "operation ID inside the OpenAPI document")
	baseURL := flag.String("base-url", "", "option-list endpoint base URL")
	language := flag.String("language", "en", "session language")
	instanceID := flag.String("instance", "", "instance ID forwarded on option-list fetches")
	textsDir := flag.String("texts", "", "directory of text-resource documents")
	interactive := flag.Bool("interactive", false, "fill the form from the terminal")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	lyt, err := loadLayout(ctx, *layoutDir, *openapiDoc, *operation)
	if err != nil {
		log.Fatalf("Failed to load layout: %v", err)
	}

	options := []engine.Option{
		engine.WithLayout(lyt),
		engine.WithBaseURL(*baseURL),
		engine.WithLanguage(*language),
		engine.WithInstanceID(*instanceID),
	}
	if *textsDir != "" {
		texts, err := textresource.LoadFS(os.DirFS(*textsDir), textresource.WithLanguage(*language))
		if err != nil {
			log.Fatalf("Failed to load text resources: %v", err)
		}
		options = append(options, engine.WithTextResources(texts))
	}

	eng, err := engine.New(options...)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	defer eng.Stop()

	if *interactive {
		filler, err := tui.New(eng)
		if err != nil {
			log.Fatalf("Failed to build filler: %v", err)
		}
		if err := filler.Run(ctx); err != nil {
			log.Fatalf("Session aborted: %v", err)
		}
	}
	eng.Wait()

	snapshot, err := renderSnapshot(eng)
	if err != nil {
		log.Fatalf("Failed to render session: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, snapshot, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Session written to %s\n", *output)
	} else {
		fmt.Println(string(snapshot))
	}
}

func loadLayout(ctx context.Context, layoutDir, openapiDoc, operation string) (*layout.Layout, error) {
	switch {
	case layoutDir != "":
		return layout.LoadFS(os.DirFS(layoutDir))
	case openapiDoc != "":
		raw, err := os.ReadFile(openapiDoc)
		if err != nil {
			return nil, err
		}
		page, err := openapi.PageFromDocument(ctx, raw, operation)
		if err != nil {
			return nil, err
		}
		return &layout.Layout{Pages: []layout.Page{page}}, nil
	default:
		return nil, fmt.Errorf("either -layouts or -openapi is required")
	}
}

type listSnapshot struct {
	ListID  string            `json:"id"`
	Mapping map[string]string `json:"mapping,omitempty"`
	Status  string            `json:"status"`
	Items   any               `json:"items,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func renderSnapshot(eng *engine.Engine) ([]byte, error) {
	lists := make(map[string]listSnapshot)
	for key, entry := range eng.OptionLists().Snapshot() {
		snap := listSnapshot{
			ListID:  entry.ListID,
			Mapping: entry.Mapping,
			Status:  string(entry.Status),
		}
		if len(entry.Items) > 0 {
			snap.Items = entry.Items
		}
		if entry.Err != nil {
			snap.Error = entry.Err.Error()
		}
		lists[key.String()] = snap
	}

	return json.MarshalIndent(map[string]any{
		"dataElementId": eng.FormData().DataElementID(),
		"formData":      eng.FormData().Flat(),
		"optionLists":   lists,
	}, "", "  ")
}
