package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// newStubS3 serves empty 200s for every S3 call, which satisfies HeadBucket
// and PutObject response parsing.
func newStubS3() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// TestUploadConcurrent drives a burst of parallel uploads through one shared
// uploader, the way concurrent create-with-media requests do. Run with the
// race detector to cover the bucket memoization.
func TestUploadConcurrent(t *testing.T) {
	stub := newStubS3()
	defer stub.Close()

	uploader, err := NewS3Uploader(stub.URL, "us-east-1", "test-access", "test-secret")
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := "payload"
			_, err := uploader.Upload(context.Background(), UploadInput{
				Bucket:      fmt.Sprintf("archive-bucket-%d", i%2),
				Key:         fmt.Sprintf("martyrs/rec/images/file-%d.jpg", i),
				Filename:    "file.jpg",
				ContentType: "image/jpeg",
				Size:        int64(len(body)),
				Body:        strings.NewReader(body),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Upload() error = %v", err)
		}
	}
}
