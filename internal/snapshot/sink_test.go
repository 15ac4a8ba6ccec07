package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/consolecache/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func stubS3(t *testing.T, fake *fakeObjects) *s3.Options {
	t.Helper()

	origLoad, origNew := loadDefaultAWSConfig, newS3Client
	t.Cleanup(func() { loadDefaultAWSConfig, newS3Client = origLoad, origNew })

	var applied s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(&applied)
		}
		return fake
	}
	return &applied
}

func TestNewS3Sink(t *testing.T) {
	applied := stubS3(t, &fakeObjects{objects: map[string][]byte{}})

	_, err := NewS3Sink(context.Background(), S3Config{Bucket: "snaps", Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", aws.ToString(applied.BaseEndpoint))
	assert.True(t, applied.UsePathStyle)
}

func TestNewS3Sink_Errors(t *testing.T) {
	stubS3(t, &fakeObjects{})

	_, err := NewS3Sink(context.Background(), S3Config{})
	assert.Error(t, err)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no region")
	}
	_, err = NewS3Sink(context.Background(), S3Config{Bucket: "snaps"})
	assert.ErrorContains(t, err, "failed to load aws config")
}

func TestS3Sink_ExportImport(t *testing.T) {
	ctx := context.Background()
	fake := &fakeObjects{objects: map[string][]byte{}}
	stubS3(t, fake)

	sink, err := NewS3Sink(ctx, S3Config{Bucket: "snaps"})
	require.NoError(t, err)

	src := openStore(t, schema)
	seed(t, src)

	loc, n, err := Export(ctx, src, sink, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Regexp(t, `^s3://snaps/snapshots/`, loc)
	assert.Len(t, fake.objects, 1)

	dst := openStore(t, schema)
	restored, err := Import(ctx, dst, sink, loc, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)
}

func TestS3Sink_WriteError(t *testing.T) {
	ctx := context.Background()
	stubS3(t, &fakeObjects{objects: map[string][]byte{}, putErr: errors.New("AccessDenied")})

	sink, err := NewS3Sink(ctx, S3Config{Bucket: "snaps"})
	require.NoError(t, err)

	_, _, err = Export(ctx, openStore(t, schema), sink, "")
	assert.ErrorContains(t, err, "AccessDenied")

	_, err = sink.Read(ctx, "missing.json")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
