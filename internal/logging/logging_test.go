package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Writer: &buf}).With(String("component", "register"))

	log.Info(context.Background(), "plot added", Int("number", 4), Float("area_m2", 10000), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "plot added" || rec["component"] != "register" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["number"] != float64(4) || rec["area_m2"] != float64(10000) || rec["error"] != "boom" {
		t.Fatalf("unexpected fields: %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Writer: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level filtering failed: %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	if _, ok := FromContext(context.Background()).(noopLogger); !ok {
		t.Fatalf("FromContext without logger should return noop")
	}

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), New(Config{Writer: &buf}))
	FromContext(ctx).Info(ctx, "from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("context logger not used: %q", buf.String())
	}
}

func TestErrNil(t *testing.T) {
	if f := Err(nil); f.Key != "error" || f.Value != "" {
		t.Fatalf("Err(nil) = %#v", f)
	}
}
