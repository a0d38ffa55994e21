package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type mockHeadClient struct {
	HeadObjectFunc func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

func (m *mockHeadClient) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return m.HeadObjectFunc(ctx, params, optFns...)
}

func TestVerification_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		length    *int64
		headErr   error
		wantErr   error
		wantInErr string
	}{
		{name: "match", length: aws.Int64(11)},
		{name: "mismatch", length: aws.Int64(10), wantErr: ErrSizeMismatch, wantInErr: "expected 11 bytes, got 10 bytes"},
		{name: "no length", wantErr: ErrSizeMismatch},
		{name: "head fails", headErr: errors.New("not found"), wantInErr: "failed to head object reports/a.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockHeadClient{
				HeadObjectFunc: func(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
					require.Equal(t, "bucket", aws.ToString(params.Bucket))
					require.Equal(t, "reports/a.csv", aws.ToString(params.Key))
					if tt.headErr != nil {
						return nil, tt.headErr
					}
					return &s3.HeadObjectOutput{ContentLength: tt.length}, nil
				},
			}

			err := New(client, "bucket").Verify(context.Background(), "reports/a.csv", 11)
			if tt.wantErr == nil && tt.wantInErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantInErr != "" {
				require.ErrorContains(t, err, tt.wantInErr)
			}
		})
	}
}
