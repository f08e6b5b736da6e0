package storageutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pierrec/lz4/v4"
	"gocloud.dev/blob"
	// Register the bucket schemes export destinations may use.
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/getsentry/calltrace/internal/errorutil"
)

// CompressedSuffix marks destinations written as an lz4 frame.
const CompressedSuffix = ".lz4"

// WriteFunc produces the content of an artifact.
type WriteFunc func(w io.Writer) error

// Compressed wraps write so its output is lz4 compressed.
func Compressed(write WriteFunc) WriteFunc {
	return func(w io.Writer) error {
		zw := lz4.NewWriter(w)
		_ = zw.Apply(lz4.CompressionLevelOption(lz4.Level9))
		if err := write(zw); err != nil {
			return err
		}
		return zw.Close()
	}
}

// Write stores the content produced by write at dest, fully or not at all.
// dest is either a local path, whose parent directories are created as
// needed, or a bucket URL such as gs://bucket/dir/callgraph.mmd. An existing
// object is replaced. Destinations ending in .lz4 are compressed.
func Write(ctx context.Context, dest string, write WriteFunc) error {
	if strings.HasSuffix(dest, CompressedSuffix) {
		write = Compressed(write)
	}
	bucketURL, key, ok := splitBucketURL(dest)
	if !ok {
		return writeFile(localPath(dest), write)
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return fmt.Errorf("storageutil: %w: open %s: %w", errorutil.ErrExport, bucketURL, err)
	}
	defer bucket.Close()
	return WriteBucket(ctx, bucket, key, write)
}

// WriteBucket stores the content produced by write under key. The object
// only becomes visible once write succeeded.
func WriteBucket(ctx context.Context, bucket *blob.Bucket, key string, write WriteFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("storageutil: %w: %s: %w", errorutil.ErrExport, key, err)
	}
	if err := write(w); err != nil {
		// canceling the context before closing aborts the write
		cancel()
		_ = w.Close()
		return fmt.Errorf("storageutil: %w: %s: %w", errorutil.ErrExport, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storageutil: %w: %s: %w", errorutil.ErrExport, key, err)
	}
	return nil
}

// splitBucketURL recognises URLs with a registered bucket scheme and splits
// them into the bucket URL and the object key.
func splitBucketURL(dest string) (string, string, bool) {
	u, err := url.Parse(dest)
	// single letter schemes are Windows drive letters
	if err != nil || len(u.Scheme) < 2 || u.Scheme == "file" {
		return "", "", false
	}
	if !blob.DefaultURLMux().ValidBucketScheme(u.Scheme) {
		return "", "", false
	}
	bucket := u.Scheme + "://" + u.Host
	if u.RawQuery != "" {
		bucket += "?" + u.RawQuery
	}
	return bucket, strings.TrimPrefix(u.Path, "/"), true
}

func localPath(dest string) string {
	if u, err := url.Parse(dest); err == nil && u.Scheme == "file" {
		return u.Path
	}
	return dest
}

// writeFile writes to a pending file and renames it over path once
// complete, so readers never observe a partial file.
func writeFile(path string, write WriteFunc) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("storageutil: %w: %s: %w", errorutil.ErrExport, path, err)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer f.Cleanup()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.CloseAtomicallyReplace()
}
