package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

// inspector reads objects back out of the container independently of the store under test.
func inspector(t *testing.T, cfg config.StorageConfig) *minio.Client {
	t.Helper()
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})
	require.NoError(t, err)
	return client
}

func TestMinioStore(t *testing.T) {
	cfg := testhelpers.SetupMinio(t)
	ctx := context.Background()

	store, err := storage.NewMinioStore(ctx, cfg)
	require.NoError(t, err)
	images := storage.NewImages(store, cfg.MaxImageBytes)

	key, err := images.Upload(ctx, "avatars", testhelpers.PNGDataURI)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.Equal(t, "http://"+cfg.Endpoint+"/"+cfg.Bucket+"/"+key, images.URL(key))

	client := inspector(t, cfg)
	info, err := client.StatObject(ctx, cfg.Bucket, key, minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, images.Remove(ctx, key))
	_, err = client.StatObject(ctx, cfg.Bucket, key, minio.StatObjectOptions{})
	assert.Error(t, err)

	// A second store on the same bucket reuses it.
	_, err = storage.NewMinioStore(ctx, cfg)
	assert.NoError(t, err)
}

func TestS3StoreAgainstS3CompatibleEndpoint(t *testing.T) {
	cfg := testhelpers.SetupMinio(t)
	ctx := context.Background()

	// The MinIO store creates the bucket; the S3 store expects it to exist.
	_, err := storage.NewMinioStore(ctx, cfg)
	require.NoError(t, err)

	s3cfg := cfg
	s3cfg.Driver = "s3"
	s3cfg.Endpoint = "http://" + cfg.Endpoint
	s3cfg.PublicBaseURL = "https://cdn.foodgram.test/"

	store, err := storage.New(ctx, s3cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.S3Store{}, store)

	data := "not really an image"
	require.NoError(t, store.Put(ctx, "recipes/plain.txt", strings.NewReader(data), int64(len(data)), "text/plain"))
	assert.Equal(t, "https://cdn.foodgram.test/recipes/plain.txt", store.URL("recipes/plain.txt"))

	client := inspector(t, cfg)
	info, err := client.StatObject(ctx, cfg.Bucket, "recipes/plain.txt", minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	require.NoError(t, store.Delete(ctx, "recipes/plain.txt"))
	assert.NoError(t, store.Delete(ctx, "recipes/plain.txt"))
}

func TestS3StoreDefaultURL(t *testing.T) {
	store, err := storage.NewS3Store(context.Background(), config.StorageConfig{
		Bucket:          "foodgram-media",
		Region:          "eu-west-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://foodgram-media.s3.eu-west-1.amazonaws.com/recipes/a.png", store.URL("recipes/a.png"))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := storage.New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage driver")
}
