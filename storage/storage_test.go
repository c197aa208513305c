package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// fakeHost 可控失败的媒体托管
type fakeHost struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   bool
	removed []string
}

func (f *fakeHost) Upload(ctx context.Context, ownerFolder, subFolder, localPath string) (*Asset, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	key := objectKey(ownerFolder, subFolder, localPath)
	return &Asset{URL: "https://cdn.test/" + key, AssetID: key}, nil
}

func (f *fakeHost) Remove(ctx context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, assetID)
	return nil
}

func TestObjectKey(t *testing.T) {
	key := objectKey("alpha", FolderSongMp3, "/tmp/upload-123.MP3")
	if !strings.HasPrefix(key, "alpha/song/mp3/") {
		t.Errorf("expected key under alpha/song/mp3/, got %q", key)
	}
	if !strings.HasSuffix(key, ".mp3") {
		t.Errorf("expected lowercased .mp3 extension, got %q", key)
	}
	if other := objectKey("alpha", FolderSongMp3, "/tmp/upload-123.MP3"); other == key {
		t.Error("expected distinct keys for repeated uploads")
	}
}

func TestUploadContentType(t *testing.T) {
	tests := map[string]string{
		"a/b.mp3":  "audio/mpeg",
		"a/b.PNG":  "image/png",
		"a/b.jpeg": "image/jpeg",
		"a/b.jpg":  "image/jpeg",
		"a/b.bin":  "application/octet-stream",
	}
	for key, want := range tests {
		if got := uploadContentType(key); got != want {
			t.Errorf("uploadContentType(%q): expected %q, got %q", key, want, got)
		}
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	inner := &fakeHost{}
	host := NewBreakerHost(inner, time.Second)
	ctx := context.Background()

	asset, err := host.Upload(ctx, "alpha", FolderAvatar, "/tmp/a.png")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(asset.AssetID, "alpha/avatar/") || asset.URL != "https://cdn.test/"+asset.AssetID {
		t.Errorf("unexpected asset %+v", asset)
	}
	if err := host.Remove(ctx, asset.AssetID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(inner.removed) != 1 || inner.removed[0] != asset.AssetID {
		t.Errorf("expected %s removed, got %v", asset.AssetID, inner.removed)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	boom := errors.New("connection refused")
	inner := &fakeHost{err: boom}
	host := NewBreakerHost(inner, time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := host.Upload(ctx, "alpha", FolderAvatar, "/tmp/a.png"); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}
	if host.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", host.State())
	}

	_, err := host.Upload(ctx, "alpha", FolderAvatar, "/tmp/a.png")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err := host.Remove(ctx, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on remove, got %v", err)
	}
	if inner.calls != 5 {
		t.Errorf("expected rejected calls not to reach the host, got %d calls", inner.calls)
	}
}

func TestBreakerIgnoresCanceledCalls(t *testing.T) {
	inner := &fakeHost{err: context.Canceled}
	host := NewBreakerHost(inner, time.Second)
	for i := 0; i < 10; i++ {
		_, _ = host.Upload(context.Background(), "alpha", FolderAvatar, "/tmp/a.png")
	}
	if host.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", host.State())
	}
}

func TestBreakerReportsTimeoutAsUnavailable(t *testing.T) {
	inner := &fakeHost{block: true}
	host := NewBreakerHost(inner, 20*time.Millisecond)

	_, err := host.Upload(context.Background(), "alpha", FolderAvatar, "/tmp/a.png")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline cause to be kept, got %v", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.size); got != tt.want {
			t.Errorf("FormatSize(%d): expected %q, got %q", tt.size, tt.want, got)
		}
	}
}

func TestSummarizeAndTree(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	objects := []ObjectInfo{
		{Key: "a/avatar/x.png", Size: 2048, LastModified: older},
		{Key: "a/song/mp3/y.mp3", Size: 10, LastModified: newer},
		{Key: "root.txt", Size: 1, LastModified: older},
	}

	stats := summarize(objects)
	if stats.TotalObjects != 3 || stats.TotalSize != 2059 || !stats.LastModified.Equal(newer) {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.SizeByKind["image"] != 2048 || stats.SizeByKind["audio"] != 10 || stats.SizeByKind["other"] != 1 {
		t.Errorf("unexpected size by kind %v", stats.SizeByKind)
	}

	var buf bytes.Buffer
	WriteTree(&buf, objects)
	want := "a/\n" +
		"  avatar/\n" +
		"    x.png (2.0 KB)\n" +
		"  song/\n" +
		"    mp3/\n" +
		"      y.mp3 (10 B)\n" +
		"root.txt (1 B)\n"
	if buf.String() != want {
		t.Errorf("expected tree:\n%s\ngot:\n%s", want, buf.String())
	}
}
