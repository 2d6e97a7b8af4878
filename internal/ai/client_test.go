package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

func testRecord() model.MartyrRecord {
	return model.MartyrRecord{
		ID: "m-1",
		PersonalInfo: model.PersonalInfo{
			Name:            "اسم الشهيد",
			NameEnglish:     "Test Martyr",
			DateOfBirth:     "1990-03-20",
			DateOfMartyrdom: "2014-07-20",
			MartyrdomPlace:  "Gaza",
			Age:             24,
		},
		Biography: model.Biography{Occupation: "teacher"},
	}
}

// TestGenerateSocialPost verifies the chat-completions wire format: model and
// prompt forwarded, bearer token attached, first choice extracted.
func TestGenerateSocialPost(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  A post.  "}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key", "gpt-4o-mini")
	text, err := client.GenerateSocialPost(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("GenerateSocialPost() error = %v", err)
	}

	if text != "A post." {
		t.Errorf("text = %q, want trimmed completion", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "Test Martyr") {
		t.Errorf("prompt did not carry record facts: %+v", gotReq.Messages)
	}
}

// TestGenerateSocialPostUpstreamError verifies non-200 responses surface as
// errors carrying the upstream status.
func TestGenerateSocialPostUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "", "gpt-4o-mini")
	if _, err := client.GenerateSocialPost(context.Background(), testRecord()); err == nil {
		t.Error("GenerateSocialPost() error = nil, want upstream error")
	} else if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q does not carry upstream status", err)
	}
}

// TestGenerateSocialPostNotConfigured verifies the unconfigured client fails
// fast without a network call.
func TestGenerateSocialPostNotConfigured(t *testing.T) {
	client := New("", "", "gpt-4o-mini")
	if _, err := client.GenerateSocialPost(context.Background(), testRecord()); err != ErrNotConfigured {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
