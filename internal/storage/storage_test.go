package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cleaning-booking/internal/config"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadReturnsPublicURL(t *testing.T) {
	fp := &fakePutter{}
	s := newS3(fp, config.StorageConfig{Endpoint: "http://minio:9000/", Region: "eu-west-2"})

	u, err := s.Upload(context.Background(), "booking-photos", "b1/123-my photo.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "http://minio:9000/booking-photos/b1/123-my%20photo.png", u)
	assert.Equal(t, "booking-photos", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fp.in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(fp.in.ContentLength))
	assert.Equal(t, "png", fp.body)
}

func TestUploadWrapsError(t *testing.T) {
	s := newS3(&fakePutter{err: errors.New("denied")}, config.StorageConfig{Region: "eu-west-2"})

	_, err := s.Upload(context.Background(), "b", "k", strings.NewReader("x"), 1, "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestPublicURLVariants(t *testing.T) {
	def := newS3(nil, config.StorageConfig{Region: "eu-west-2"})
	assert.Equal(t, "https://service-images.s3.eu-west-2.amazonaws.com/rug.png", def.PublicURL("service-images", "rug.png"))

	cdn := newS3(nil, config.StorageConfig{PublicURL: "https://cdn.example.com/storage/v1/object/public", Endpoint: "http://ignored"})
	assert.Equal(t, "https://cdn.example.com/storage/v1/object/public/service-images/rug.png", cdn.PublicURL("service-images", "rug.png"))
}
