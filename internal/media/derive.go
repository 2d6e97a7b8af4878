// internal/media/derive.go
package media

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// Placeholder image dimensions recorded on image assets. Dimensions are not
// measured from the payload.
const (
	PlaceholderWidth  = 800
	PlaceholderHeight = 600
)

// bytesPerMinute maps declared MIME types to an assumed data rate used for
// duration estimation. These are coarse assumptions (uncompressed WAV is
// taken as roughly ten times denser than MP3), not measurements.
var bytesPerMinute = map[string]int64{
	"audio/mpeg": 1 * 1024 * 1024,
	"audio/ogg":  1 * 1024 * 1024,
	"audio/wav":  10 * 1024 * 1024,
	"video/mp4":  12 * 1024 * 1024,
	"video/webm": 8 * 1024 * 1024,
}

const defaultBytesPerMinute = 4 * 1024 * 1024

// EstimateDuration approximates a playback duration (mm:ss) from file size
// and declared MIME type. The result is an estimate, never decoded from the
// container, and can be arbitrarily wrong; assets carry it with an explicit
// estimate flag.
func EstimateDuration(sizeBytes int64, mimeType string) string {
	if sizeBytes <= 0 {
		return "0:00"
	}
	rate, ok := bytesPerMinute[strings.ToLower(mimeType)]
	if !ok {
		rate = defaultBytesPerMinute
	}
	seconds := sizeBytes * 60 / rate
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatSizeMB renders a byte count as a human-readable MB string.
func FormatSizeMB(sizeBytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(sizeBytes)/(1024*1024))
}

// SanitizeFilename reduces a filename to lowercase ASCII letters, digits,
// dots, dashes and underscores so it is safe as an object-key component.
func SanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" || out == "." {
		return "file"
	}
	return out
}

// TitleFromFilename derives an asset title from the filename stem.
func TitleFromFilename(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ObjectKey builds the logical storage path of an asset:
// martyrs/{recordId}/{category}/{timestamp}-{sanitized filename}.
// The timestamp prefix keeps repeated uploads of the same filename from
// colliding.
func ObjectKey(recordID, category, filename string, now time.Time) string {
	return fmt.Sprintf("martyrs/%s/%s/%d-%s", recordID, category, now.UnixMilli(), SanitizeFilename(filename))
}
