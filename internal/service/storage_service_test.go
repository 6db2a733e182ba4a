package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/utils"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}

func newTestStorage(api objectAPI) *StorageService {
	return &StorageService{
		api:        api,
		bucket:     "decorhaus-media",
		publicBase: "https://media.example.com",
		prefix:     "products/",
		now:        func() time.Time { return time.UnixMilli(1767225600000) },
	}
}

func TestUploadImage(t *testing.T) {
	api := &mockObjectAPI{}
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "decorhaus-media" &&
			strings.HasPrefix(aws.ToString(in.Key), "products/1767225600000-") &&
			strings.HasSuffix(aws.ToString(in.Key), "-living-room.png") &&
			aws.ToString(in.ContentType) == "image/png"
	})).Return(nil)

	s := newTestStorage(api)
	img, err := s.UploadImage(context.Background(), "Living Room.PNG", pngHeader)
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "https://media.example.com/"+img.Key, img.URL)
	api.AssertExpectations(t)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	api := &mockObjectAPI{}
	s := newTestStorage(api)

	_, err := s.UploadImage(context.Background(), "notes.png", []byte("just some text pretending to be an image"))
	assert.ErrorIs(t, err, utils.ErrUnsupportedUpload)

	_, err = s.UploadImage(context.Background(), "big.png", make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, utils.ErrUnsupportedUpload)

	_, err = s.UploadImage(context.Background(), "empty.png", nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	api.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestUploadImageStorageFailure(t *testing.T) {
	api := &mockObjectAPI{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(errors.New("bucket not found"))

	_, err := newTestStorage(api).UploadImage(context.Background(), "a.png", pngHeader)
	assert.Error(t, err)
}

func TestDeleteByURL(t *testing.T) {
	api := &mockObjectAPI{}
	api.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "products/123-abc-lamp.jpg"
	})).Return(nil)
	s := newTestStorage(api)

	require.NoError(t, s.DeleteByURL(context.Background(), "https://media.example.com/products/123-abc-lamp.jpg"))
	require.NoError(t, s.DeleteByURL(context.Background(), "https://elsewhere.example.com/x.jpg"))
	api.AssertNumberOfCalls(t, "DeleteObject", 1)

	_, ok := s.KeyFromURL("https://media.example.com/")
	assert.False(t, ok)
}
