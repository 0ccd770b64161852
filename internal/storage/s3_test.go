package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/xxxsen/mediaidx/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"   ":                     "",
		"minio.local:9000":        "https://minio.local:9000",
		"http://minio.local:9000": "http://minio.local:9000",
		"https://s3.example.com":  "https://s3.example.com",
		" s3.example.com ":        "https://s3.example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeEndpoint(in), "input %q", in)
	}
}

func TestNewS3ClientLocation(t *testing.T) {
	client, err := NewS3Client(context.Background(), appconfig.S3Config{
		Host:            "minio.local:9000",
		Bucket:          "archive",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://archive/media-index/index.csv", client.Location("media-index/index.csv"))
}

func TestNewS3ClientRequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), appconfig.S3Config{Host: "minio.local:9000"})
	assert.Error(t, err)
}

func TestUploadRejectsEmptyKey(t *testing.T) {
	client, err := NewS3Client(context.Background(), appconfig.S3Config{
		Host:            "minio.local:9000",
		Bucket:          "archive",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Error(t, client.Upload(context.Background(), "/", []byte("x"), "text/csv"))
	assert.Equal(t, "s3://archive/a.csv", client.Location("/a.csv"))
}
