package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestClassifyErrorBuckets(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategory("")},
		{"payment required", &openAIHTTPError{StatusCode: 402, Body: `{"error":{"message":"payment required"}}`}, ErrorCategoryQuota},
		{"quota body on 429", &openAIHTTPError{StatusCode: 429, Body: `{"error":{"code":"insufficient_quota","message":"You exceeded your current quota"}}`}, ErrorCategoryQuota},
		{"plain 429", &openAIHTTPError{StatusCode: 429, Body: `{"error":{"code":"rate_limit_exceeded"}}`}, ErrorCategoryRateLimit},
		{"bad key", &openAIHTTPError{StatusCode: 401, Body: `{"error":{"message":"Incorrect API key provided"}}`}, ErrorCategoryAuth},
		{"forbidden", &openAIHTTPError{StatusCode: 403, Body: `{"error":{"message":"project does not have access"}}`}, ErrorCategoryAuth},
		{"server error", &openAIHTTPError{StatusCode: 503, Body: "upstream unavailable"}, ErrorCategoryUnavailable},
		{"validation", &openAIHTTPError{StatusCode: 400, Body: `{"error":{"message":"invalid schema"}}`}, ErrorCategoryOther},
		{"deadline", context.DeadlineExceeded, ErrorCategoryUnavailable},
		{"wrapped http error", errors.Join(errors.New("call failed"), &openAIHTTPError{StatusCode: 401, Body: "no"}), ErrorCategoryAuth},
		{"plain error", errors.New("connection refused"), ErrorCategoryOther},
	}

	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseNoTempModelRules(t *testing.T) {
	exact, prefixes := parseNoTempModelRules("o1-* , GPT-5, gpt-5-chat-latest,, o3-*")
	if !exact["gpt-5"] || !exact["gpt-5-chat-latest"] {
		t.Fatalf("exact rules missing: %#v", exact)
	}
	if len(prefixes) != 2 || prefixes[0] != "o1" || prefixes[1] != "o3" {
		t.Fatalf("prefix rules wrong: %#v", prefixes)
	}
}

func TestModelIsNoTempLearnsAndExpires(t *testing.T) {
	c := &client{
		noTempModels:   map[string]bool{"gpt-5": true},
		noTempPrefixes: []string{"o1"},
		noTempSeen:     map[string]time.Time{},
		noTempTTL:      time.Hour,
	}

	if !c.modelIsNoTemp("GPT-5") {
		t.Fatal("static exact rule should match case-insensitively")
	}
	if !c.modelIsNoTemp("o1-preview") {
		t.Fatal("static prefix rule should match")
	}
	if c.modelIsNoTemp("gpt-4.1") {
		t.Fatal("unlisted model should allow temperature")
	}

	c.noteNoTempModel("gpt-4.1")
	if !c.modelIsNoTemp("gpt-4.1") {
		t.Fatal("learned rejection should stick within TTL")
	}

	c.noTempMu.Lock()
	c.noTempSeen["gpt-4.1"] = time.Now().UTC().Add(-2 * time.Hour)
	c.noTempMu.Unlock()
	if c.modelIsNoTemp("gpt-4.1") {
		t.Fatal("learned rejection should expire after TTL")
	}
}

func TestIsUnsupportedTemperatureMessage(t *testing.T) {
	yes := []string{
		"Unsupported parameter: 'temperature' is not supported with this model.",
		"unknown parameter temperature",
		"temperature does not support 0.2 with this model; only the default (1) value is supported",
		`{"error":{"type":"invalid_request_error","param":"temperature"}}`,
	}
	for _, s := range yes {
		if !isUnsupportedTemperatureMessage(s) {
			t.Errorf("expected match: %s", s)
		}
	}

	no := []string{
		"",
		"rate limit exceeded",
		"unsupported parameter: 'top_k'",
	}
	for _, s := range no {
		if isUnsupportedTemperatureMessage(s) {
			t.Errorf("unexpected match: %s", s)
		}
	}
}

func TestExtractUsageFromRaw(t *testing.T) {
	in, out := extractUsageFromRaw([]byte(`{"usage":{"input_tokens":120,"output_tokens":45}}`))
	if in != 120 || out != 45 {
		t.Fatalf("responses usage: got %d/%d", in, out)
	}

	in, out = extractUsageFromRaw([]byte(`{"usage":{"prompt_tokens":80,"completion_tokens":20}}`))
	if in != 80 || out != 20 {
		t.Fatalf("legacy usage: got %d/%d", in, out)
	}

	in, out = extractUsageFromRaw([]byte(`{"usage":{"total_tokens":33}}`))
	if in != 33 || out != 0 {
		t.Fatalf("total-only usage: got %d/%d", in, out)
	}

	in, out = extractUsageFromRaw([]byte(`not json`))
	if in != 0 || out != 0 {
		t.Fatalf("garbage usage: got %d/%d", in, out)
	}
}

func TestExtractOutputTextConcatenatesAssistantText(t *testing.T) {
	var resp responsesResponse
	payload := `{
		"output": [
			{"type": "reasoning"},
			{"type": "message", "role": "assistant", "content": [
				{"type": "output_text", "text": "Subject: Roof repair quote"},
				{"type": "output_text", "text": "\n\nHi Dana,"}
			]}
		]
	}`
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := extractOutputText(resp)
	want := "Subject: Roof repair quote\n\nHi Dana,"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
