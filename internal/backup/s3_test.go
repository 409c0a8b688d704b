package backup

import (
	"strings"
	"testing"
	"time"
)

func TestParseS3BucketURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantBkt   string
		wantPre   string
		errSubstr string
	}{
		{
			name:    "bucket only",
			raw:     "s3://my-bucket",
			wantBkt: "my-bucket",
			wantPre: "",
		},
		{
			name:    "bucket with prefix",
			raw:     "s3://my-bucket/sage/backups",
			wantBkt: "my-bucket",
			wantPre: "sage/backups",
		},
		{
			name:      "invalid scheme",
			raw:       "https://my-bucket/sage",
			wantErr:   true,
			errSubstr: "s3:// scheme",
		},
		{
			name:      "missing bucket",
			raw:       "s3:///sage",
			wantErr:   true,
			errSubstr: "missing bucket",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotBkt, gotPre, err := parseS3BucketURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errSubstr != "" && !strings.Contains(err.Error(), tt.errSubstr) {
					t.Fatalf("err = %q, want substring %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseS3BucketURL error: %v", err)
			}
			if gotBkt != tt.wantBkt {
				t.Fatalf("bucket = %q, want %q", gotBkt, tt.wantBkt)
			}
			if gotPre != tt.wantPre {
				t.Fatalf("prefix = %q, want %q", gotPre, tt.wantPre)
			}
		})
	}
}

func TestNewS3Uploader_MissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewS3Uploader(S3Config{
		BucketURL: "s3://my-bucket/sage",
		Endpoint:  "s3.amazonaws.com",
		UseSSL:    true,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestS3Uploader_ObjectKeyYearMonthLayout(t *testing.T) {
	t.Parallel()

	u := &S3Uploader{
		bucket: "my-bucket",
		prefix: "sage/backups",
		now:    func() time.Time { return time.Date(2026, time.March, 9, 4, 0, 0, 0, time.UTC) },
	}
	if got := u.objectKey("/var/backups/sage-20260309-040000.duckdb"); got != "sage/backups/2026/03/sage-20260309-040000.duckdb" {
		t.Fatalf("objectKey = %q, want year/month layout under the prefix", got)
	}

	u.prefix = ""
	if got := u.objectKey("/var/backups/snap.duckdb"); got != "2026/03/snap.duckdb" {
		t.Fatalf("objectKey without prefix = %q", got)
	}
}

func TestEndpointURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", true, ""},
		{"minio.internal:9000", false, "http://minio.internal:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
		{"https://s3.eu-central-1.amazonaws.com", false, "https://s3.eu-central-1.amazonaws.com"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.useSSL); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tt.endpoint, tt.useSSL, got, tt.want)
		}
	}
}
