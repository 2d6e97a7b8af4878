package media

import (
	"strings"
	"testing"
	"time"
)

// TestEstimateDuration checks the per-MIME data-rate assumptions.
func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name string
		size int64
		mime string
		want string
	}{
		{"one minute of mp3", 1 * 1024 * 1024, "audio/mpeg", "1:00"},
		{"one minute of wav", 10 * 1024 * 1024, "audio/wav", "1:00"},
		{"wav is denser than mp3", 1 * 1024 * 1024, "audio/wav", "0:06"},
		{"half minute of mp4", 6 * 1024 * 1024, "video/mp4", "0:30"},
		{"unknown mime uses default rate", 4 * 1024 * 1024, "application/octet-stream", "1:00"},
		{"zero size", 0, "audio/mpeg", "0:00"},
		{"tiny file rounds up to a second", 100, "audio/mpeg", "0:01"},
	}

	for _, tt := range tests {
		if got := EstimateDuration(tt.size, tt.mime); got != tt.want {
			t.Errorf("%s: EstimateDuration(%d, %q) = %q, want %q", tt.name, tt.size, tt.mime, got, tt.want)
		}
	}
}

// TestFormatSizeMB checks the human-readable size string.
func TestFormatSizeMB(t *testing.T) {
	if got := FormatSizeMB(2*1024*1024 + 512*1024); got != "2.50 MB" {
		t.Errorf("FormatSizeMB = %q, want %q", got, "2.50 MB")
	}
	if got := FormatSizeMB(0); got != "0.00 MB" {
		t.Errorf("FormatSizeMB(0) = %q, want %q", got, "0.00 MB")
	}
}

// TestSanitizeFilename checks object-key safety of uploaded names.
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Portrait Photo.JPG", "portrait-photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"صورة.png", "-.png"},
		{"audio clip (final).mp3", "audio-clip--final-.mp3"},
		{"", "file"},
	}
	for _, tt := range tests {
		got := SanitizeFilename(tt.in)
		if tt.in == "صورة.png" {
			// Non-ASCII collapses to dashes; exact shape matters less than safety.
			if strings.ContainsAny(got, " /\\") || got == "" {
				t.Errorf("SanitizeFilename(%q) = %q, want key-safe string", tt.in, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestObjectKey checks the logical storage path layout.
func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000000).UTC()
	got := ObjectKey("m-123", "images", "Portrait Photo.JPG", now)
	want := "martyrs/m-123/images/1700000000000-portrait-photo.jpg"
	if got != want {
		t.Errorf("ObjectKey = %q, want %q", got, want)
	}
}

// TestTitleFromFilename checks title derivation from the filename stem.
func TestTitleFromFilename(t *testing.T) {
	if got := TitleFromFilename("uploads/eulogy recording.mp3"); got != "eulogy recording" {
		t.Errorf("TitleFromFilename = %q, want %q", got, "eulogy recording")
	}
}
