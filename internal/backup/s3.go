package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"
)

// S3Config holds the parameters for the snapshot mirror.
type S3Config struct {
	BucketURL    string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Uploader shells out to the AWS CLI (`aws s3 cp`) to copy snapshot files
// into the configured bucket. Credentials are passed through the process
// environment, never through argv.
type S3Uploader struct {
	bucket string
	prefix string
	cfg    S3Config
	now    func() time.Time
}

// NewS3Uploader validates the bucket URL and credentials and checks that
// the AWS CLI is installed. Region defaults to us-east-1.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	bucket, prefix, err := parseS3BucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required")
	}
	if _, err := exec.LookPath("aws"); err != nil {
		return nil, fmt.Errorf("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Uploader{
		bucket: bucket,
		prefix: prefix,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// UploadFile copies localPath into the bucket under the uploader's prefix
// plus a year/month folder, so retention tooling can expire whole months.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) error {
	dest := fmt.Sprintf("s3://%s/%s", u.bucket, u.objectKey(localPath))

	args := []string{"s3", "cp", localPath, dest, "--region", u.cfg.Region, "--only-show-errors"}
	if endpoint := endpointURL(u.cfg.Endpoint, u.cfg.UseSSL); endpoint != "" {
		args = append(args, "--endpoint-url", endpoint)
	}

	cmd := exec.CommandContext(ctx, "aws", args...)
	cmd.Env = append(os.Environ(),
		"AWS_ACCESS_KEY_ID="+u.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY="+u.cfg.SecretKey,
		"AWS_DEFAULT_REGION="+u.cfg.Region,
	)
	if strings.TrimSpace(u.cfg.SessionToken) != "" {
		cmd.Env = append(cmd.Env, "AWS_SESSION_TOKEN="+u.cfg.SessionToken)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("s3: upload %s: %w: %s", path.Base(localPath), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// objectKey builds prefix/YYYY/MM/filename for a local snapshot path.
func (u *S3Uploader) objectKey(localPath string) string {
	folder := u.now().UTC().Format("2006/01")
	if u.prefix != "" {
		return path.Join(u.prefix, folder, path.Base(localPath))
	}
	return path.Join(folder, path.Base(localPath))
}

// endpointURL normalizes a custom endpoint for the CLI. A bare host gets a
// scheme chosen by the UseSSL flag; an explicit scheme is kept as is.
func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	default:
		return "http://" + endpoint
	}
}

// parseS3BucketURL splits s3://bucket/prefix into its parts. The prefix is
// optional and returned without surrounding slashes.
func parseS3BucketURL(raw string) (bucket string, prefix string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "s3://")
	if !ok {
		return "", "", fmt.Errorf("s3: bucket-url must use s3:// scheme")
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3: bucket-url missing bucket name")
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
