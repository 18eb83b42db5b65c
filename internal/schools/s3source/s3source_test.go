package s3source

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
)

type fakeS3 struct {
	objects map[string]string
	gotKey  string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotKey = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[f.gotKey]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		in          string
		bucket, key string
		wantErr     bool
	}{
		{in: "s3://cfg/aliases/schools.yaml", bucket: "cfg", key: "aliases/schools.yaml"},
		{in: "s3://cfg/", wantErr: true},
		{in: "s3:///x.yaml", wantErr: true},
		{in: "https://cfg/x.yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, k, err := ParseURI(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.key, k)
		})
	}
}

func TestFetch(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"cfg/schools.csv": "name,alias\nYale University,yale\n"}}
	f := NewWithClient(fake)

	key, body, err := f.Fetch(context.Background(), "s3://cfg/schools.csv")
	require.NoError(t, err)
	assert.Equal(t, "schools.csv", key)
	assert.Contains(t, string(body), "Yale University")

	_, _, err = f.Fetch(context.Background(), "s3://cfg/missing.csv")
	assert.Error(t, err)
}
