package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/portal/core/academic"
)

func TestPatchFields(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	sem := "2"

	fields := patchFields(academic.ProfilePatch{Semester: &sem}, now)
	assert.Equal(t, map[string]interface{}{
		"semester":   "2",
		"updated_at": "2025-03-01T08:00:00Z",
	}, fields)
}

func TestProfileFromHash(t *testing.T) {
	tests := []struct {
		name string
		hash map[string]string
		want academic.Profile
	}{
		{
			name: "full",
			hash: map[string]string{"semester": "1", "school_year": "2025-2026", "updated_at": "2025-03-01T08:00:00Z"},
			want: academic.Profile{UserID: "u1", Semester: "1", SchoolYear: "2025-2026", UpdatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		},
		{
			name: "bad timestamp",
			hash: map[string]string{"semester": "summer", "updated_at": "yesterday"},
			want: academic.Profile{UserID: "u1", Semester: "summer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := profileFromHash("u1", tt.hash)
			if !got.UpdatedAt.Equal(tt.want.UpdatedAt) {
				t.Errorf("UpdatedAt = %v; want %v", got.UpdatedAt, tt.want.UpdatedAt)
			}
			got.UpdatedAt, tt.want.UpdatedAt = time.Time{}, time.Time{}
			assert.Equal(t, tt.want, got)
		})
	}
}
