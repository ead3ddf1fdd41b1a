package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/file.pdf", want: "root/user/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "user/file.pdf", want: "root/sub/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	pages   []*s3.ListObjectsV2Output
	calls   int
	objects map[string]string
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if _, err := io.ReadAll(in.Body); err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestListPagesAndStripsPrefix(t *testing.T) {
	fake := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []s3types.Object{{Key: aws.String("corpus/b.md"), Size: aws.Int64(3)}, {Key: aws.String("corpus/dir/")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents: []s3types.Object{{Key: aws.String("corpus/a.pdf"), Size: aws.Int64(9)}},
		},
	}}
	store := NewWithClient(fake, "bucket", "/corpus/", "")

	items, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 pages, got %d", fake.calls)
	}
	if len(items) != 2 || items[0].Key != "a.pdf" || items[1].Key != "b.md" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestOpenAndSaveUsePrefix(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"corpus/a.md": "hello"}}
	store := NewWithClient(fake, "bucket", "corpus", "kms-1")

	rc, err := store.Open(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Fatalf("unexpected body %q", data)
	}

	n, err := store.SaveWithKey(context.Background(), "a.pdf.extracted.txt", "text/plain", strings.NewReader("text"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	put := fake.puts[0]
	if aws.ToString(put.Key) != "corpus/a.pdf.extracted.txt" {
		t.Fatalf("unexpected key %s", aws.ToString(put.Key))
	}
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected kms encryption")
	}
}
