package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/haivivi/voiceid/pkg/storage"
)

// fakeS3 is an in-memory S3API implementation.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[*params.Key] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, *params.Key)
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*params.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fs := storage.NewS3(fake, "bucket", "voiceid")

	w, err := fs.Write(ctx, "backups/store.vpsn")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("snapshot")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Key carries the prefix.
	if _, ok := fake.objects["voiceid/backups/store.vpsn"]; !ok {
		t.Fatalf("object not stored under prefixed key; have %v", keysOf(fake))
	}

	r, err := fs.Read(ctx, "backups/store.vpsn")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "snapshot" {
		t.Fatalf("read %q, want %q", data, "snapshot")
	}

	ok, err := fs.Exists(ctx, "backups/store.vpsn")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}
}

func TestS3ReadMissing(t *testing.T) {
	ctx := context.Background()
	fs := storage.NewS3(newFakeS3(), "bucket", "")

	if _, err := fs.Read(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read missing = %v, want ErrNotExist", err)
	}
	ok, err := fs.Exists(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Exists missing = %v, %v; want false, nil", ok, err)
	}
}

func TestS3Delete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fs := storage.NewS3(fake, "bucket", "")

	fake.objects["x"] = []byte("y")
	if err := fs.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := fake.objects["x"]; ok {
		t.Fatal("object still present after Delete")
	}
	// Idempotent.
	if err := fs.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func keysOf(f *fakeS3) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}
