package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/backend"
	"github.com/formx360/formx/internal/config"
	"github.com/formx360/formx/pkg/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const formYAML = `
title: Signup
fields:
  - id: age
    type: number
    label: Age
    order: 1
    validation_rules:
      min_value: 5
  - id: name
    type: text
    label: Name
    required: true
    order: 0
  - id: color
    type: dropdown
    label: Color
    order: 2
    options: [red, blue]
`

func TestValidateFilesYAML(t *testing.T) {
	dir := t.TempDir()
	formPath := writeFile(t, dir, "form.yaml", formYAML)
	respPath := writeFile(t, dir, "responses.yaml", `
responses:
  - field_id: age
    value: 4
  - field_id: color
    value: green
`)

	result, err := validateFiles(formPath, respPath)
	if err != nil {
		t.Fatalf("validateFiles failed: %v", err)
	}
	want := []string{
		"Field 'Name' is required.",
		"Field 'Age' must be at least 5.",
		"Field 'Color' must be one of the predefined options.",
	}
	if diff := cmp.Diff(want, result.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFilesJSONList(t *testing.T) {
	dir := t.TempDir()
	formPath := writeFile(t, dir, "form.yaml", formYAML)
	respPath := writeFile(t, dir, "responses.json",
		`[{"field_id": "name", "value": "Ada"}, {"field_id": "age", "value": 5}, {"field_id": "color", "value": "red"}]`)

	result, err := validateFiles(formPath, respPath)
	if err != nil {
		t.Fatalf("validateFiles failed: %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected acceptance, got %v", result.Messages())
	}

	form, err := loadForm(formPath)
	if err != nil {
		t.Fatal(err)
	}
	if form.Fields[0].ID != "name" || form.Fields[2].Type != schema.FieldSelect {
		t.Errorf("Expected sorted fields with resolved alias, got %+v", form.Fields)
	}
}

func TestValidateFilesMissing(t *testing.T) {
	if _, err := validateFiles("missing.yaml", "missing.yaml"); err == nil {
		t.Error("Expected error for missing files")
	}
}

func TestParseLocation(t *testing.T) {
	key := []byte("k")
	tests := []struct {
		loc     string
		want    backend.Options
		wantErr bool
	}{
		{"file:./data", backend.Options{Kind: config.StoreFile, DataDir: "./data", Key: key}, false},
		{"postgres:postgres://u@h/db?sslmode=disable", backend.Options{Kind: config.StorePostgres, DSN: "postgres://u@h/db?sslmode=disable"}, false},
		{"mongo:x", backend.Options{}, true},
		{"file:", backend.Options{}, true},
		{"nothing", backend.Options{}, true},
	}
	for _, tt := range tests {
		got, err := parseLocation(tt.loc, key)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLocation(%q) error = %v, wantErr %v", tt.loc, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseLocation(%q) mismatch (-want +got):\n%s", tt.loc, diff)
		}
	}
}

func TestCopyStoreBetweenFileStores(t *testing.T) {
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)

	srcDir, dstDir := t.TempDir(), t.TempDir()
	src, err := backend.Open(ctx, backend.Options{Kind: config.StoreFile, DataDir: srcDir}, log)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := src.Store.CreateCompany(ctx, schema.Company{Name: "Acme"})
	f, _ := src.Store.CreateForm(ctx, schema.Form{CompanyID: c.ID, Title: "Survey"})
	if err := src.Store.AttachForm(ctx, c.ID, f.ID); err != nil {
		t.Fatal(err)
	}
	src.Close()

	stats, err := copyStore(ctx, "file:"+srcDir, "file:"+dstDir, nil, log)
	if err != nil {
		t.Fatalf("copyStore failed: %v", err)
	}
	if stats.Companies != 1 || stats.Forms != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	dst, err := backend.Open(ctx, backend.Options{Kind: config.StoreFile, DataDir: dstDir}, log)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()
	got, err := dst.Store.GetCompany(ctx, c.ID)
	if err != nil || len(got.FormIDs) != 1 || got.FormIDs[0] != f.ID {
		t.Errorf("Expected copied company with its form, got %+v %v", got, err)
	}
}
