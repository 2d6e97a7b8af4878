// integration/archive_flow_test.go
// Package integration exercises the full archive flow over HTTP: multipart
// creation with media, engagement counters, search, signed downloads,
// AI-drafted social posts and deletion, with events observed end to end.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/ai"
	"github.com/shahed-archive/shahed-archive-go/internal/media"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
	"github.com/shahed-archive/shahed-archive-go/internal/repo"
	"github.com/shahed-archive/shahed-archive-go/internal/schema"
	"github.com/shahed-archive/shahed-archive-go/internal/server"
	"github.com/shahed-archive/shahed-archive-go/internal/storage"
)

// flowPublisher records every published event.
type flowPublisher struct {
	created []string
	updated []string
	deleted []string
	uploads []string
	candles []int64
}

func (p *flowPublisher) PublishRecordCreated(ctx context.Context, record model.MartyrRecord) error {
	p.created = append(p.created, record.ID)
	return nil
}

func (p *flowPublisher) PublishRecordUpdated(ctx context.Context, record model.MartyrRecord) error {
	p.updated = append(p.updated, record.ID)
	return nil
}

func (p *flowPublisher) PublishRecordDeleted(ctx context.Context, recordID string) error {
	p.deleted = append(p.deleted, recordID)
	return nil
}

func (p *flowPublisher) PublishMediaUploaded(ctx context.Context, recordID string, asset model.MediaAsset) error {
	p.uploads = append(p.uploads, asset.ID)
	return nil
}

func (p *flowPublisher) PublishCandleLit(ctx context.Context, recordID string, total int64) error {
	p.candles = append(p.candles, total)
	return nil
}

func (p *flowPublisher) Close() error { return nil }

// memoryUploader implements media.Uploader in memory.
type memoryUploader struct {
	objects map[string][]byte
	deleted []string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(ctx context.Context, in media.UploadInput) (*media.UploadResult, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.objects[in.Bucket+"/"+in.Key] = body
	return &media.UploadResult{
		URL:       "https://storage.test/" + in.Bucket + "/" + in.Key,
		Key:       in.Key,
		Title:     media.TitleFromFilename(in.Filename),
		Size:      media.FormatSizeMB(in.Size),
		SizeBytes: in.Size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, bucket, key string) error {
	u.deleted = append(u.deleted, bucket+"/"+key)
	delete(u.objects, bucket+"/"+key)
	return nil
}

func (u *memoryUploader) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s/%s?signature=abc", bucket, key), nil
}

// newAIStub serves an OpenAI-compatible chat-completions endpoint.
func newAIStub(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("AI stub got path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "In loving memory."}},
			},
		})
	}))
}

func decodeData(t *testing.T, raw []byte, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
		t.Fatalf("bad data envelope: %v (%s)", err, raw)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func addFilePart(t *testing.T, mw *multipart.Writer, field, filename, contentType string, body []byte) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatal(err)
	}
}

// TestArchiveFlow drives one record through its whole life over HTTP.
func TestArchiveFlow(t *testing.T) {
	store, err := storage.NewFile(filepath.Join(t.TempDir(), "martyrs.json"))
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	validator, err := schema.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	aiStub := newAIStub(t)
	defer aiStub.Close()

	uploader := newMemoryUploader()
	pub := &flowPublisher{}
	repository := repo.New(store, uploader, pub, validator, ai.New(aiStub.URL, "test-key", "gpt-4o-mini"), "flow-archive")
	mux := server.NewMux(repository, 10*1024*1024, []string{"image/jpeg", "audio/mpeg", "application/pdf"}, nil)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// Multipart create: record JSON plus profile image and an audio file.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	recordJSON := `{
		"personalInfo": {
			"name": "اسم الشهيد",
			"nameEnglish": "Flow Martyr",
			"dateOfBirth": "1992-01-10",
			"dateOfMartyrdom": "2021-05-15",
			"martyrdomPlace": "Gaza City"
		},
		"biography": {"occupation": "nurse"},
		"tags": ["flow"]
	}`
	if err := mw.WriteField("record", recordJSON); err != nil {
		t.Fatal(err)
	}
	addFilePart(t, mw, "profileImage", "portrait.jpg", "image/jpeg", []byte("jpeg bytes"))
	addFilePart(t, mw, "audio", "eulogy.mp3", "audio/mpeg", bytes.Repeat([]byte("a"), 2048))
	mw.Close()

	resp, err := client.Post(srv.URL+"/v1/martyrs", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, raw)
	}
	var created model.MartyrRecord
	decodeData(t, raw, &created)

	if created.MediaAssets.ProfileImage == nil {
		t.Fatal("profile image missing from created record")
	}
	if len(created.MediaAssets.Audio) != 1 {
		t.Fatalf("audio assets = %d, want 1", len(created.MediaAssets.Audio))
	}
	now := time.Now().UTC()
	wantAge := now.Year() - 1992
	if now.Month() == time.January && now.Day() < 10 {
		wantAge--
	}
	if created.PersonalInfo.Age != wantAge {
		t.Errorf("age = %d, want %d as of today", created.PersonalInfo.Age, wantAge)
	}
	if len(uploader.objects) != 2 {
		t.Errorf("stored objects = %d, want 2", len(uploader.objects))
	}
	if len(pub.created) != 1 || len(pub.uploads) != 2 {
		t.Errorf("events: created = %d uploads = %d, want 1 and 2", len(pub.created), len(pub.uploads))
	}

	// Candle.
	resp, err = client.Post(srv.URL+"/v1/martyrs/"+created.ID+"/candle", "application/json", nil)
	if err != nil {
		t.Fatalf("candle: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	var stats model.Statistics
	decodeData(t, raw, &stats)
	if stats.Candles != 1 {
		t.Errorf("candles = %d, want 1", stats.Candles)
	}
	if len(pub.candles) != 1 {
		t.Errorf("candle events = %d, want 1", len(pub.candles))
	}

	// Search finds the record by occupation.
	resp, err = client.Get(srv.URL + "/v1/martyrs?q=nurse")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	var result model.SearchResult
	decodeData(t, raw, &result)
	if result.Total != 1 {
		t.Errorf("search total = %d, want 1", result.Total)
	}

	// Signed download redirect bumps the counter.
	audioID := created.MediaAssets.Audio[0].ID
	resp, err = client.Get(srv.URL + "/v1/martyrs/" + created.ID + "/media/" + audioID + "/download")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("download status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "signature=") {
		t.Errorf("redirect location %q is not signed", loc)
	}

	// Social post through the AI stub.
	resp, err = client.Post(srv.URL+"/v1/martyrs/"+created.ID+"/social-post", "application/json", nil)
	if err != nil {
		t.Fatalf("social post: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("social post status = %d: %s", resp.StatusCode, raw)
	}
	var post model.SocialPostResponse
	decodeData(t, raw, &post)
	if post.Text != "In loving memory." || post.Model != "gpt-4o-mini" {
		t.Errorf("post = %+v, want stubbed text and model", post)
	}

	// Delete removes the record and cleans up both stored objects.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/martyrs/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	if len(uploader.objects) != 0 {
		t.Errorf("stored objects after delete = %d, want 0", len(uploader.objects))
	}
	if len(pub.deleted) != 1 {
		t.Errorf("deleted events = %d, want 1", len(pub.deleted))
	}
}
