package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/appser/appser-store/pkg/logger"
)

func TestJSONOutputCarriesContextAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.INFO, true, &buf)

	log := logger.GetLogger().WithContext("component", "storefront")
	log.Info("app_loaded", "app_id", "whatsapp", "likes", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["message"] != "app_loaded" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
	if entry["component"] != "storefront" || entry["app_id"] != "whatsapp" {
		t.Fatalf("missing fields: %v", entry)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.WARN, true, &buf)

	logger.Debug("noise")
	logger.Info("noise")
	logger.Warn("kept", map[string]interface{}{"reason": "test"})

	out := buf.String()
	if strings.Contains(out, "noise") {
		t.Fatalf("expected debug/info to be filtered: %s", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "reason") {
		t.Fatalf("expected warn line with map fields: %s", out)
	}
}

func TestNilWriterDiscards(t *testing.T) {
	logger.Init(logger.INFO, false, nil)
	logger.Error("discarded", "odd_key")
}
