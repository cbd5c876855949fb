package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"APPROVED", StatusApproved, true},
		{" rejected ", StatusRejected, true},
		{"pending", StatusPending, true},
		{"archived", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestCanonicalMetadata(t *testing.T) {
	doc := &Document{ID: "d-1", Filename: "Q1 <final> & signed.pdf", UploaderID: "u-1"}

	canonical, err := CanonicalMetadata(doc, "m-1", "2026-01-01T00:00:00Z")
	require.NoError(t, err)

	assert.Equal(t,
		`{"docId":"d-1","filename":"Q1 <final> & signed.pdf","uploaderId":"u-1","approverId":"m-1","timestamp":"2026-01-01T00:00:00Z"}`,
		string(canonical))

	t.Run("HashIsStable", func(t *testing.T) {
		again, err := CanonicalMetadata(doc, "m-1", "2026-01-01T00:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, MetadataHash(canonical), MetadataHash(again))
		assert.Len(t, MetadataHash(canonical), 64)
	})

	t.Run("AnyFieldChangesHash", func(t *testing.T) {
		base := MetadataHash(canonical)
		variants := []*Document{
			{ID: "d-2", Filename: doc.Filename, UploaderID: doc.UploaderID},
			{ID: doc.ID, Filename: "other.pdf", UploaderID: doc.UploaderID},
			{ID: doc.ID, Filename: doc.Filename, UploaderID: "u-2"},
		}
		for _, v := range variants {
			c, err := CanonicalMetadata(v, "m-1", "2026-01-01T00:00:00Z")
			require.NoError(t, err)
			assert.NotEqual(t, base, MetadataHash(c))
		}
		c, err := CanonicalMetadata(doc, "m-2", "2026-01-01T00:00:00Z")
		require.NoError(t, err)
		assert.NotEqual(t, base, MetadataHash(c))
	})
}

func TestFilter_Matches(t *testing.T) {
	uploaded := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	doc := &Document{UploaderID: "u-42", UploaderName: "Alice", UploadedAt: uploaded, Status: StatusPending}
	before := uploaded.Add(-time.Hour)
	after := uploaded.Add(time.Hour)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"Empty", Filter{}, true},
		{"StatusMatch", Filter{Status: StatusPending}, true},
		{"StatusMismatch", Filter{Status: StatusApproved}, false},
		{"UploaderNameSubstring", Filter{Uploader: "lic"}, true},
		{"UploaderIDSubstring", Filter{Uploader: "U-4"}, true},
		{"UploaderMismatch", Filter{Uploader: "bob"}, false},
		{"InsideRange", Filter{From: &before, To: &after}, true},
		{"FromInclusive", Filter{From: &uploaded}, true},
		{"ToInclusive", Filter{To: &uploaded}, true},
		{"BeforeRange", Filter{From: &after}, false},
		{"AfterRange", Filter{To: &before}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}
