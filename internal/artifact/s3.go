package artifact

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"casetrack/internal/awsutil"
)

// S3Sink uploads artifacts to a bucket, typically the one serving the
// chart page as a static website.
type S3Sink struct {
	api    s3iface.S3API
	bucket string
	prefix string
}

// NewS3Sink creates a sink for bucket. Object keys are prefixed with prefix.
func NewS3Sink(bucket, prefix, region, endpoint string) (*S3Sink, error) {
	sess, err := awsutil.NewSession(region, endpoint)
	if err != nil {
		return nil, err
	}
	return &S3Sink{api: s3.New(sess), bucket: bucket, prefix: prefix}, nil
}

var contentTypes = map[string]string{
	".js":   "application/javascript",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *S3Sink) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return path.Join(s.prefix, k)
}

// Put uploads body under key with a content type derived from its extension.
func (s *S3Sink) Put(ctx context.Context, key string, body []byte) error {
	contentType := contentTypes[path.Ext(key)]
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key(key), err)
	}
	return nil
}

// Purge deletes every object under the prefix, one listing page at a time.
func (s *S3Sink) Purge(ctx context.Context) (int, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		in.Prefix = aws.String(s.prefix + "/")
	}

	n := 0
	var delErr error
	err := s.api.ListObjectsV2PagesWithContext(ctx, in, func(page *s3.ListObjectsV2Output, _ bool) bool {
		if len(page.Contents) == 0 {
			return true
		}
		ids := make([]*s3.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, &s3.ObjectIdentifier{Key: obj.Key})
		}
		out, err := s.api.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			delErr = err
			return false
		}
		if len(out.Errors) > 0 {
			delErr = fmt.Errorf("%d objects not deleted, first: %s", len(out.Errors), aws.StringValue(out.Errors[0].Message))
			return false
		}
		n += len(ids)
		return true
	})
	if err == nil {
		err = delErr
	}
	if err != nil {
		return n, fmt.Errorf("purge s3://%s: %w", s.bucket, err)
	}
	return n, nil
}
