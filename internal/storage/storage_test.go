package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"ricemill-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutEndpoint(t *testing.T) {
	s, err := New(config.MinIOConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestPresignedURL(t *testing.T) {
	s, err := New(config.MinIOConfig{
		Endpoint:      "minio.local:9000",
		AccessKey:     "access",
		SecretKey:     "secret-secret",
		Bucket:        "purchase-slips",
		Region:        "us-east-1",
		PresignExpiry: time.Hour,
	})
	require.NoError(t, err)

	raw, err := s.PresignedURL(context.Background(), "slips/2024/05/01/abc-Purchase_Slip_X_1.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", u.Host)
	assert.Equal(t, "/purchase-slips/slips/2024/05/01/abc-Purchase_Slip_X_1.pdf", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestKeys(t *testing.T) {
	k := SlipKey("Purchase_Slip_X_1.pdf")
	assert.True(t, strings.HasPrefix(k, "slips/"), k)
	assert.True(t, strings.HasSuffix(k, "-Purchase_Slip_X_1.pdf"), k)
	assert.NotEqual(t, k, SlipKey("Purchase_Slip_X_1.pdf"))

	assert.Equal(t, "backups/dump.sql", BackupKey("dump.sql"))
}
