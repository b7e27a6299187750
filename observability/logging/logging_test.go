package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "ledgerd", "test", "debug")
	logger.Debug("call committed", "contract", "<0,0>", MaskField("authorization", "Bearer secret"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for key, want := range map[string]string{
		"message":       "call committed",
		"severity":      "DEBUG",
		"service":       "ledgerd",
		"env":           "test",
		"contract":      "<0,0>",
		"authorization": Redacted,
	} {
		if line[key] != want {
			t.Fatalf("%s: expected %q, got %v", key, want, line[key])
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("missing timestamp")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "ledgerd", "", "warn")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level: %s", buf.String())
	}
	if ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unknown levels default to info")
	}
}

func TestMaskField(t *testing.T) {
	if got := MaskField("Contract", "<1,0>").Value.String(); got != "<1,0>" {
		t.Fatalf("safe key masked: %s", got)
	}
	if got := MaskField("token", "").Value.String(); got != "" {
		t.Fatalf("empty values stay empty, got %q", got)
	}
	if len(SafeKeys()) == 0 {
		t.Fatalf("no safe keys")
	}
}

func TestMaskCredential(t *testing.T) {
	for header, want := range map[string]string{
		"":             "",
		"Bearer abc":   "Bearer " + Redacted,
		"rawsecret":    Redacted,
		"  Basic xyz ": "Basic " + Redacted,
	} {
		if got := MaskCredential(header); got != want {
			t.Fatalf("MaskCredential(%q) = %q, want %q", header, got, want)
		}
	}
}
