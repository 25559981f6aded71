package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("NewWithOutput failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}

	log.WithField("form_id", "f1").Info("form created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON line, got %q", buf.String())
	}
	if entry["form_id"] != "f1" || entry["msg"] != "form created" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
