package folio_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
)

func TestParseContentSource(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    folio.ContentSource
		wantErr bool
	}{
		{name: "remote", input: "remote", want: folio.SourceRemote},
		{name: "local", input: "local", want: folio.SourceLocal},
		{name: "empty defaults to remote", input: "", want: folio.SourceRemote},
		{name: "uppercase is invalid", input: "LOCAL", wantErr: true},
		{name: "unknown", input: "cdn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := folio.ParseContentSource(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestViewKind_IsValid(t *testing.T) {
	assert.True(t, folio.ViewPage.IsValid())
	assert.True(t, folio.ViewBlog.IsValid())
	assert.False(t, folio.ViewKind("").IsValid())
	assert.False(t, folio.ViewKind("Blog").IsValid())
}

func TestFormatTimestamp(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	ts := time.Date(2024, 3, 9, 17, 4, 5, 123456789, zone)

	assert.Equal(t, "2024-03-09T12:04:05.123Z", folio.FormatTimestamp(ts))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", folio.FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNewAnalytics(t *testing.T) {
	data := folio.NewAnalytics(testNow)

	assert.NotNil(t, data.Pages)
	assert.NotNil(t, data.Blogs)
	assert.Zero(t, data.TotalViews)
	assert.Equal(t, "2024-12-01T10:00:00.000Z", data.LastUpdated)
}

func TestProbeResult_OK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 0, want: false},
		{status: 199, want: false},
		{status: 200, want: true},
		{status: 204, want: true},
		{status: 299, want: true},
		{status: 301, want: false},
		{status: 404, want: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, folio.ProbeResult{StatusCode: tt.status}.OK())
		})
	}
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  folio.Tables
		wantErr bool
	}{
		{name: "default", tables: folio.Tables{Documents: "folio_documents"}},
		{name: "leading underscore", tables: folio.Tables{Documents: "_docs"}},
		{name: "empty", tables: folio.Tables{}, wantErr: true},
		{name: "uppercase", tables: folio.Tables{Documents: "Docs"}, wantErr: true},
		{name: "leading digit", tables: folio.Tables{Documents: "1docs"}, wantErr: true},
		{name: "injection", tables: folio.Tables{Documents: "docs; drop table x"}, wantErr: true},
		{name: "too long", tables: folio.Tables{Documents: "a234567890123456789012345678901234567890123456789012345678901234"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	err := fmt.Errorf("create blog: %w", folio.Invalid("Title and body are required"))

	assert.ErrorIs(t, err, folio.ErrInvalidInput)
	assert.NotErrorIs(t, err, folio.ErrNotFound)

	var fe *folio.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Title and body are required", fe.Message)

	assert.ErrorIs(t, folio.NotFound("x"), folio.ErrNotFound)
	assert.ErrorIs(t, folio.NotConfigured("x"), folio.ErrNotConfigured)

	up := &folio.UpstreamError{Op: "persist analytics", StatusCode: 502}
	assert.EqualError(t, up, "Failed to persist analytics: 502")
	assert.ErrorIs(t, up, folio.ErrUpstream)
}
