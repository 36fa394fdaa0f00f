package obs

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestLogRequestEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	LogRequest(map[string]any{"msg": "request", "status": 200})

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("line is not JSON: %q: %v", line, err)
	}
	if entry["msg"] != "request" || entry["status"] != float64(200) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLogRequestMarshalFailure(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	LogRequest(map[string]any{"bad": make(chan int)})

	if !strings.Contains(buf.String(), "log marshal failed") {
		t.Fatalf("fallback line missing: %q", buf.String())
	}
}
