package avatars

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/internal/common"
	"contactbook/internal/server/config"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ScalesToSquare(t *testing.T) {
	for _, tc := range []struct {
		name string
		w, h int
	}{
		{"landscape", 400, 300},
		{"portrait", 120, 500},
		{"already square", 250, 250},
		{"upscales small images", 40, 40},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := normalize(encodePNG(t, tc.w, tc.h))
			require.NoError(t, err)

			decoded, err := jpeg.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, AvatarSize, decoded.Bounds().Dx())
			assert.Equal(t, AvatarSize, decoded.Bounds().Dy())
		})
	}
}

func TestNormalize_RejectsNonImageData(t *testing.T) {
	_, err := normalize([]byte("definitely not an image"))
	assert.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestUploader(putter objectPutter) *S3Uploader {
	u := NewS3Uploader(&config.Config{
		S3Bucket:       "avatars",
		S3BaseEndpoint: "http://127.0.0.1:9000",
	})
	u.clientFor = func(ctx context.Context) (objectPutter, error) { return putter, nil }
	return u
}

func TestUpload_StoresNormalizedJPEGAndReturnsURL(t *testing.T) {
	putter := &fakePutter{}
	u := newTestUploader(putter)

	url, err := u.Upload(context.Background(), encodePNG(t, 300, 200), "alice")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/avatars/avatars/alice.jpg", url)

	require.NotNil(t, putter.input)
	assert.Equal(t, "avatars", *putter.input.Bucket)
	assert.Equal(t, "avatars/alice.jpg", *putter.input.Key)
	assert.Equal(t, "image/jpeg", *putter.input.ContentType)

	body, err := io.ReadAll(putter.input.Body)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, decoded.Bounds().Dx())
}

func TestUpload_BadImageYieldsUploadFailed(t *testing.T) {
	putter := &fakePutter{}
	u := newTestUploader(putter)

	_, err := u.Upload(context.Background(), []byte("not an image"), "alice")
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Nil(t, putter.input, "nothing should reach the store")
}

func TestUpload_StoreErrorYieldsUploadFailed(t *testing.T) {
	putter := &fakePutter{err: errors.New("connection refused")}
	u := newTestUploader(putter)

	_, err := u.Upload(context.Background(), encodePNG(t, 100, 100), "alice")
	assert.ErrorIs(t, err, common.ErrUploadFailed)
}
