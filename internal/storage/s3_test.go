package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	objects map[string]bool
	headErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	if f.objects == nil {
		f.objects = map[string]bool{}
	}
	f.objects[aws.ToString(in.Key)] = true
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if f.objects[aws.ToString(in.Key)] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
}

func TestS3StoreWrite(t *testing.T) {
	fake := &fakeS3{}
	store, err := NewS3StoreWithClient(fake, "studio-artifacts", "/exports/")
	if err != nil {
		t.Fatalf("NewS3StoreWithClient: %v", err)
	}

	key, err := store.Write(context.Background(), "artifacts/job.webm", []byte("webm"), "video/webm")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "exports/artifacts/job.webm" {
		t.Fatalf("key mismatch: got %q", key)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(fake.puts))
	}
	in := fake.puts[0]
	if aws.ToString(in.Bucket) != "studio-artifacts" || aws.ToString(in.ContentType) != "video/webm" {
		t.Fatalf("put input mismatch: bucket %q type %q", aws.ToString(in.Bucket), aws.ToString(in.ContentType))
	}
	if aws.ToInt64(in.ContentLength) != 4 || string(fake.bodies[0]) != "webm" {
		t.Fatalf("body mismatch: %q", fake.bodies[0])
	}
	if got := store.Location("artifacts/job.webm"); got != "s3://studio-artifacts/exports/artifacts/job.webm" {
		t.Fatalf("location mismatch: %q", got)
	}
}

func TestS3StoreExists(t *testing.T) {
	fake := &fakeS3{objects: map[string]bool{"artifacts/a.mp4": true}}
	store, err := NewS3StoreWithClient(fake, "bucket", "")
	if err != nil {
		t.Fatalf("NewS3StoreWithClient: %v", err)
	}
	ctx := context.Background()

	if ok, err := store.Exists(ctx, "artifacts/a.mp4"); err != nil || !ok {
		t.Fatalf("Exists present: %v %v", ok, err)
	}
	if ok, err := store.Exists(ctx, "artifacts/b.mp4"); err != nil || ok {
		t.Fatalf("Exists absent: %v %v", ok, err)
	}

	fake.headErr = errors.New("connection reset")
	if _, err := store.Exists(ctx, "artifacts/a.mp4"); err == nil {
		t.Fatalf("expected transport error to surface")
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3StoreWithClient(&fakeS3{}, " ", ""); err == nil {
		t.Fatalf("expected error for blank bucket")
	}
}
