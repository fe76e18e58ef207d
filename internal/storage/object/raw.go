package object

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"channel_metrics/internal/domain"
	"channel_metrics/internal/transform"
)

const rawKeyTimestamp = "20060102_150405"

// RawStore writes and reads snapshot JSON in the raw zone.
type RawStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewRawStore creates a raw-zone store rooted at prefix within bucket.
func NewRawStore(client *minio.Client, bucket string, prefix string, logger *slog.Logger) *RawStore {
	return &RawStore{
		client: client,
		bucket: bucket,
		prefix: strings.TrimRight(prefix, "/"),
		logger: logger,
	}
}

// PutSnapshot serializes a snapshot as UTF-8 JSON and lands it at
// <prefix>/<Title with spaces as underscores>_<YYYYMMDD_HHMMSS>.json. The
// second-granular run timestamp keeps keys unique across runs and
// channels; two runs inside the same second overwrite one object (last
// write wins). Each object is mirrored under the run date's partition path
// so the transform stage finds it there.
func (s *RawStore) PutSnapshot(ctx context.Context, snap *domain.Snapshot, runTime time.Time) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json",
		strings.ReplaceAll(snap.Channel.Title, " ", "_"),
		runTime.UTC().Format(rawKeyTimestamp),
	)
	key := fmt.Sprintf("%s/%s", s.prefix, name)
	partitionKey := fmt.Sprintf("%s/%s/%s", s.prefix, transform.PartitionFor(runTime.UTC()).Path(), name)

	for _, k := range []string{key, partitionKey} {
		_, err := s.client.PutObject(ctx, s.bucket, k,
			bytes.NewReader(buf.Bytes()), int64(buf.Len()),
			minio.PutObjectOptions{ContentType: "application/json"},
		)
		if err != nil {
			return "", fmt.Errorf("put %q: %w", k, err)
		}
	}

	s.logger.Info("stored raw snapshot",
		"bucket", s.bucket,
		"key", key,
		"bytes", buf.Len(),
	)

	return key, nil
}

// ListSnapshots reads every JSON object under the given date partition. A
// decode failure is fatal: the transform stage aborts rather than process
// a partial day.
func (s *RawStore) ListSnapshots(ctx context.Context, part transform.Partition) ([]domain.RawObject, error) {
	prefix := fmt.Sprintf("%s/%s/", s.prefix, part.Path())

	var snapshots []domain.RawObject
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}

		snap, err := s.getSnapshot(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}

	s.logger.Info("read raw partition",
		"bucket", s.bucket,
		"prefix", prefix,
		"objects", len(snapshots),
	)

	return snapshots, nil
}

func (s *RawStore) getSnapshot(ctx context.Context, key string) (*domain.RawObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}

	raw := domain.RawObject{Key: key}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &top); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	for f := range top {
		raw.Fields = append(raw.Fields, f)
	}
	if channelJSON, ok := top["channel_info"]; ok {
		var channel map[string]json.RawMessage
		if err := json.Unmarshal(channelJSON, &channel); err != nil {
			return nil, fmt.Errorf("decode %q channel_info: %w", key, err)
		}
		for f := range channel {
			raw.ChannelFields = append(raw.ChannelFields, f)
		}
	}

	if videosJSON, ok := top["videos"]; ok {
		var videos []map[string]json.RawMessage
		if err := json.Unmarshal(videosJSON, &videos); err != nil {
			return nil, fmt.Errorf("decode %q videos: %w", key, err)
		}
		if len(videos) > 0 {
			for f := range videos[0] {
				raw.VideoFields = append(raw.VideoFields, f)
			}
		}
	}

	if err := json.Unmarshal(buf.Bytes(), &raw.Snapshot); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}

	return &raw, nil
}
