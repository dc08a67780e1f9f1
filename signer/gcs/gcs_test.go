package gcs_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/signer/gcs"
)

const (
	testBucket = "folio-media"
	testEmail  = "uploader@folio-prod.iam.gserviceaccount.com"
)

var testTime = time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func pkcs8PEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func pkcs1PEM(key *rsa.PrivateKey) string {
	der := x509.MarshalPKCS1PrivateKey(key)
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

func newSigner(t *testing.T, key *rsa.PrivateKey) *gcs.Signer {
	t.Helper()
	s, err := gcs.New(gcs.Config{
		Bucket:              testBucket,
		ServiceAccountEmail: testEmail,
		PrivateKey:          pkcs8PEM(t, key),
	}, gcs.WithClock(func() time.Time { return testTime }))
	require.NoError(t, err)
	return s
}

func TestSigner_SignURL_CanonicalForm(t *testing.T) {
	key := generateKey(t)
	s := newSigner(t, key)

	signed, err := s.SignURL(context.Background(), folio.SignRequest{
		ObjectName:  "gallery/a b.jpg",
		Method:      http.MethodPut,
		ContentType: "image/jpeg",
		Expires:     10 * time.Minute,
	})
	require.NoError(t, err)

	wantQuery := "X-Goog-Algorithm=GOOG4-RSA-SHA256" +
		"&X-Goog-Content-SHA256=UNSIGNED-PAYLOAD" +
		"&X-Goog-Credential=uploader%40folio-prod.iam.gserviceaccount.com%2F20240305%2Fauto%2Fstorage%2Fgoog4_request" +
		"&X-Goog-Date=20240305T060708Z" +
		"&X-Goog-Expires=600" +
		"&X-Goog-SignedHeaders=content-type%3Bhost"
	wantPrefix := "https://storage.googleapis.com/folio-media/gallery/a%20b.jpg?" + wantQuery + "&X-Goog-Signature="

	require.True(t, strings.HasPrefix(signed.SignedURL, wantPrefix), "got %s", signed.SignedURL)
	assert.Equal(t, "https://storage.googleapis.com/folio-media/gallery/a%20b.jpg", signed.PublicURL)

	canonicalRequest := strings.Join([]string{
		"PUT",
		"/folio-media/gallery/a%20b.jpg",
		wantQuery,
		"content-type:image/jpeg\nhost:storage.googleapis.com\n",
		"content-type;host",
		"UNSIGNED-PAYLOAD",
	}, "\n")
	requestHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := "GOOG4-RSA-SHA256\n20240305T060708Z\n20240305/auto/storage/goog4_request\n" + hex.EncodeToString(requestHash[:])
	digest := sha256.Sum256([]byte(stringToSign))

	sig, err := hex.DecodeString(strings.TrimPrefix(signed.SignedURL, wantPrefix))
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestSigner_SignURL_Defaults(t *testing.T) {
	s := newSigner(t, generateKey(t))

	signed, err := s.SignURL(context.Background(), folio.SignRequest{
		ObjectName: "gallery/photo.png",
		Method:     "delete",
	})
	require.NoError(t, err)

	u, err := url.Parse(signed.SignedURL)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Goog-Expires"))
	assert.Equal(t, "content-type;host", u.Query().Get("X-Goog-SignedHeaders"))
	assert.NotEmpty(t, u.Query().Get("X-Goog-Signature"))
}

func TestSigner_SignURL_NotConfigured(t *testing.T) {
	key := generateKey(t)

	tests := []struct {
		name string
		cfg  gcs.Config
	}{
		{name: "missing bucket", cfg: gcs.Config{ServiceAccountEmail: testEmail, PrivateKey: pkcs1PEM(key)}},
		{name: "missing email", cfg: gcs.Config{Bucket: testBucket, PrivateKey: pkcs1PEM(key)}},
		{name: "missing key", cfg: gcs.Config{Bucket: testBucket, ServiceAccountEmail: testEmail}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := gcs.New(tt.cfg)
			require.NoError(t, err)
			assert.False(t, s.Configured())

			_, err = s.SignURL(context.Background(), folio.SignRequest{
				ObjectName: "gallery/x.jpg",
				Method:     http.MethodPut,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, folio.ErrNotConfigured))
			assert.Equal(t, "GCS credentials are not configured", err.Error())
		})
	}
}

func TestSigner_SignURL_InvalidRequests(t *testing.T) {
	s := newSigner(t, generateKey(t))

	tests := []struct {
		name string
		req  folio.SignRequest
	}{
		{name: "traversal", req: folio.SignRequest{ObjectName: "../etc/passwd", Method: http.MethodPut}},
		{name: "leading slash", req: folio.SignRequest{ObjectName: "/gallery/x.jpg", Method: http.MethodPut}},
		{name: "post method", req: folio.SignRequest{ObjectName: "gallery/x.jpg", Method: http.MethodPost}},
		{name: "expiry too long", req: folio.SignRequest{ObjectName: "gallery/x.jpg", Method: http.MethodPut, Expires: 8 * 24 * time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignURL(context.Background(), tt.req)
			assert.ErrorIs(t, err, folio.ErrInvalidInput)
		})
	}
}

func TestNew_PrivateKeyFormats(t *testing.T) {
	key := generateKey(t)

	t.Run("pkcs1 with escaped newlines", func(t *testing.T) {
		escaped := strings.ReplaceAll(pkcs1PEM(key), "\n", `\n`)
		s, err := gcs.New(gcs.Config{Bucket: testBucket, ServiceAccountEmail: testEmail, PrivateKey: escaped})
		require.NoError(t, err)
		assert.True(t, s.Configured())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := gcs.New(gcs.Config{Bucket: testBucket, ServiceAccountEmail: testEmail, PrivateKey: "not a key"})
		assert.Error(t, err)
	})
}

func TestSigner_ObjectName(t *testing.T) {
	s, err := gcs.New(gcs.Config{Bucket: testBucket})
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{name: "public url", url: "https://storage.googleapis.com/folio-media/gallery/abc.jpg", want: "gallery/abc.jpg", wantOK: true},
		{name: "escaped segment", url: "https://storage.googleapis.com/folio-media/gallery/a%20b.jpg", want: "gallery/a b.jpg", wantOK: true},
		{name: "signed url", url: "https://storage.googleapis.com/folio-media/gallery/abc.jpg?X-Goog-Signature=ff", want: "gallery/abc.jpg", wantOK: true},
		{name: "regional host", url: "https://eu.storage.googleapis.com/folio-media/gallery/abc.jpg", want: "gallery/abc.jpg", wantOK: true},
		{name: "other bucket", url: "https://storage.googleapis.com/other/gallery/abc.jpg"},
		{name: "other host", url: "https://images.example.com/folio-media/gallery/abc.jpg"},
		{name: "bucket only", url: "https://storage.googleapis.com/folio-media/"},
		{name: "not a url", url: "::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ObjectName(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSigner_PublicURL(t *testing.T) {
	s, err := gcs.New(gcs.Config{Bucket: testBucket})
	require.NoError(t, err)

	assert.Equal(t, "https://storage.googleapis.com/folio-media/blogs/index.json", s.PublicURL(folio.BlogsDocument))
}
