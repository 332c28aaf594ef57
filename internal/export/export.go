// Package export materialises a run's profiles as bulk files in a blob bucket.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver

	"stake-wallet-profiler/internal/domain"
)

// Format is a bulk export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONZstd Format = "json.zst"
	FormatCSV      Format = "csv"
	FormatParquet  Format = "parquet"
)

// BaseName is the object name stem for every export.
const BaseName = "wallet_profiles"

// DefaultFormats are written when none are configured.
var DefaultFormats = []Format{FormatJSON, FormatCSV}

// ParseFormats parses a comma separated format list.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultFormats, nil
	}
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.TrimSpace(part))
		switch f {
		case FormatJSON, FormatJSONZstd, FormatCSV, FormatParquet:
		default:
			return nil, fmt.Errorf("unknown export format %q", f)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Key returns the object key for f under prefix.
func Key(prefix string, f Format) string {
	return prefix + BaseName + "." + string(f)
}

// Exporter writes profile exports to a bucket.
type Exporter struct {
	bucket *blob.Bucket
	prefix string
	logger logrus.FieldLogger
}

// Open opens the bucket at url (file:///dir, mem://, s3://bucket, gs://bucket).
func Open(ctx context.Context, url, prefix string, logger logrus.FieldLogger) (*Exporter, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open export bucket %s: %w", url, err)
	}
	return New(bucket, prefix, logger), nil
}

// New wraps an already opened bucket.
func New(bucket *blob.Bucket, prefix string, logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{bucket: bucket, prefix: prefix, logger: logger.WithField("component", "export")}
}

// Close closes the underlying bucket.
func (e *Exporter) Close() error {
	return e.bucket.Close()
}

// Export writes profiles in every requested format and returns the keys written.
func (e *Exporter) Export(ctx context.Context, profiles []*domain.WalletProfile, formats []Format) ([]string, error) {
	var keys []string
	for _, f := range formats {
		var buf bytes.Buffer
		var err error
		switch f {
		case FormatJSON:
			err = EncodeJSON(&buf, profiles)
		case FormatJSONZstd:
			err = EncodeJSONZstd(&buf, profiles)
		case FormatCSV:
			err = EncodeCSV(&buf, profiles)
		case FormatParquet:
			err = EncodeParquet(&buf, profiles)
		default:
			err = fmt.Errorf("unknown export format %q", f)
		}
		if err != nil {
			return keys, fmt.Errorf("encode %s: %w", f, err)
		}

		key := Key(e.prefix, f)
		if err := e.put(ctx, key, buf.Bytes(), contentType(f)); err != nil {
			return keys, err
		}
		e.logger.WithFields(logrus.Fields{"key": key, "bytes": buf.Len(), "profiles": len(profiles)}).Info("export written")
		keys = append(keys, key)
	}
	return keys, nil
}

func (e *Exporter) put(ctx context.Context, key string, data []byte, ctype string) error {
	w, err := e.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: ctype})
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}

func contentType(f Format) string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// EncodeJSON writes profiles as an indented JSON array. A nil slice encodes as [].
func EncodeJSON(w *bytes.Buffer, profiles []*domain.WalletProfile) error {
	if profiles == nil {
		profiles = []*domain.WalletProfile{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(profiles)
}
