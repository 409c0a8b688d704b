// Package backup snapshots the DuckDB database on a schedule so an enriched
// log archive can be rebuilt after disk loss. Snapshots land in a local
// directory and, when a bucket is configured, are mirrored to S3 under a
// year/month layout.
package backup

import (
	"context"
	"time"
)

// Config controls the snapshot schedule and the optional S3 mirror.
type Config struct {
	Enabled  bool
	Interval time.Duration
	LocalDir string
	KeepLast int

	// BucketURL enables the S3 mirror when set, format s3://bucket/prefix.
	BucketURL      string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3SessionToken string
	S3UseSSL       bool
}

// Snapshotter produces a consistent copy of the live database.
type Snapshotter interface {
	DBPath() string
	SnapshotTo(dstPath string) error
}

// Uploader mirrors one snapshot file to remote storage.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) error
}
