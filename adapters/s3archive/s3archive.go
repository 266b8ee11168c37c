// Package s3archive ships finished query result pages off to S3 as an
// append-only audit trail, for deployments that want a durable record of
// what a cursor-paginated query actually returned at a point in time.
// S3 has no range-scan semantics, so unlike adapters/duckdbstore and
// adapters/pgstore it is not an icydb.OrderedKV backend: it is a one-way
// sink a caller opts into alongside a real store.
//
// Grounded on the teacher's internal/cdc/flusher.go (config.LoadDefaultConfig,
// s3.NewFromConfig, object-key layout under a prefix) and
// internal/e2e_harness/fixtures.go (manager.NewUploader, PutObjectInput).
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	icydb "github.com/dragginzgame/icydb-sub005"
)

// Config names the bucket and key prefix a Writer archives under.
type Config struct {
	Bucket string
	Prefix string
	Region string
}

// Writer uploads one object per archived page, newline-delimited JSON of
// each row's fields rendered via icydb.String (a debug/audit rendering,
// not a round-trippable encoding: s3archive is a sink, never a source).
type Writer struct {
	cfg      Config
	uploader *manager.Uploader
}

// Open loads AWS config from the environment (shared config files, env
// vars, instance role) the same way flusher.go does, then builds an
// uploader bound to it.
func Open(ctx context.Context, cfg Config) (*Writer, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("icydb/s3archive: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Writer{cfg: cfg, uploader: manager.NewUploader(client)}, nil
}

// ArchivePage uploads entity's rows as one object keyed by entity name,
// trace ID, and wall-clock time, returning the object key it wrote to.
func (w *Writer) ArchivePage(ctx context.Context, entity string, rows []icydb.Row, traceID uuid.UUID, archivedAt time.Time) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		rendered := make(map[string]string, len(row))
		for field, v := range row {
			rendered[field] = icydb.String(v)
		}
		if err := enc.Encode(rendered); err != nil {
			return "", fmt.Errorf("icydb/s3archive: encode row: %w", err)
		}
	}

	key := strings.TrimSuffix(w.cfg.Prefix, "/") +
		fmt.Sprintf("/%s/%d/%s.ndjson", entity, archivedAt.UnixMilli(), traceID)

	if _, err := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}); err != nil {
		return "", fmt.Errorf("icydb/s3archive: upload: %w", err)
	}

	zap.S().Debugw("icydb/s3archive: archived page", "entity", entity, "rows", len(rows), "key", key)
	return key, nil
}
