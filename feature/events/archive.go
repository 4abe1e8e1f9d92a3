package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"nursery-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Archive writes the raw payload of each scrape run to object storage so
// normalisation changes can be replayed against historical captures
// without re-scraping.
type Archive struct {
	client storage.Client
	bucket string
}

// NewArchive creates an archive writer. A nil client disables archiving.
func NewArchive(client storage.Client, bucket string) *Archive {
	if client == nil {
		return nil
	}
	return &Archive{client: client, bucket: bucket}
}

// Store uploads one capture as a JSON object under
// captures/<system>/<timestamp>.json, creating the bucket on first use.
func (a *Archive) Store(ctx context.Context, system string, raws []RawRecord) error {
	payload, err := json.MarshalIndent(struct {
		System     string      `json:"system"`
		CapturedAt time.Time   `json:"captured_at"`
		Records    []RawRecord `json:"records"`
	}{
		System:     system,
		CapturedAt: time.Now().UTC(),
		Records:    raws,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal capture: %w", err)
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check archive bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create archive bucket: %w", err)
		}
	}

	objName := fmt.Sprintf("captures/%s/%s.json", system, time.Now().UTC().Format("20060102T150405Z"))
	_, err = a.client.PutObject(ctx, a.bucket, objName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload capture %s: %w", objName, err)
	}
	return nil
}

// CaptureInfo describes one archived capture object.
type CaptureInfo struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// List returns the stored captures, newest first. An empty system lists
// captures of both systems.
func (a *Archive) List(ctx context.Context, system string) ([]CaptureInfo, error) {
	prefix := "captures/"
	if system != "" {
		prefix = fmt.Sprintf("captures/%s/", system)
	}

	var infos []CaptureInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list captures: %w", obj.Err)
		}
		infos = append(infos, CaptureInfo{
			Key:        obj.Key,
			Size:       obj.Size,
			ModifiedAt: obj.LastModified,
		})
	}

	// Object keys embed the capture timestamp, so descending key order
	// is newest first.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key > infos[j].Key })
	return infos, nil
}

// Load reads one capture back and returns the system it was scraped
// from together with its raw records.
func (a *Archive) Load(ctx context.Context, key string) (string, []RawRecord, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch capture %s: %w", key, err)
	}
	defer obj.Close()

	var capture struct {
		System  string      `json:"system"`
		Records []RawRecord `json:"records"`
	}
	if err := json.NewDecoder(obj).Decode(&capture); err != nil {
		return "", nil, fmt.Errorf("failed to decode capture %s: %w", key, err)
	}
	return capture.System, capture.Records, nil
}

// Remove deletes one stored capture.
func (a *Archive) Remove(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove capture %s: %w", key, err)
	}
	return nil
}
