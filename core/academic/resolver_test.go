package academic

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/records"
	logsvc "github.com/trezcool/portal/services/logger"
)

type fakeProfiles struct {
	mu     sync.Mutex
	data   map[string]Profile
	writes int
	err    error
}

func (f *fakeProfiles) Read(_ context.Context, userID string) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Profile{}, f.err
	}
	prof, ok := f.data[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return prof, nil
}

func (f *fakeProfiles) Write(_ context.Context, userID string, patch ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		f.data = make(map[string]Profile)
	}
	f.writes++
	f.data[userID] = patch.Apply(f.data[userID])
	return nil
}

type fakeSettings struct {
	raw   records.Raw
	err   error
	calls int
}

func (f *fakeSettings) CurrentSettings(context.Context) (records.Raw, error) {
	f.calls++
	return f.raw, f.err
}

func TestResolver_Resolve(t *testing.T) {
	upstream := records.Raw{"current_semester": "2nd", "current_school_year": "2024-2025"}

	tests := []struct {
		name       string
		profiles   map[string]Profile
		settings   *fakeSettings
		query      PeriodQuery
		want       Period
		wantSource Source
		wantErr    bool
	}{
		{
			name:       "query wins",
			profiles:   map[string]Profile{"u1": {Semester: "2", SchoolYear: "2024"}},
			settings:   &fakeSettings{raw: upstream},
			query:      PeriodQuery{Semester: "1st", SchoolYear: "2025"},
			want:       Period{Semester: "1", SchoolYear: "2025"},
			wantSource: SourceQuery,
		},
		{
			name:       "half a query falls through to profile",
			profiles:   map[string]Profile{"u1": {Semester: "summer", SchoolYear: "2024"}},
			settings:   &fakeSettings{raw: upstream},
			query:      PeriodQuery{Semester: "1"},
			want:       Period{Semester: "summer", SchoolYear: "2024"},
			wantSource: SourceProfile,
		},
		{
			name:       "incomplete profile falls through to upstream",
			profiles:   map[string]Profile{"u1": {Semester: "1"}},
			settings:   &fakeSettings{raw: upstream},
			want:       Period{Semester: "2", SchoolYear: "2024-2025"},
			wantSource: SourceUpstream,
		},
		{
			name:     "nothing anywhere",
			settings: &fakeSettings{raw: records.Raw{}},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeProfiles{data: tt.profiles}, tt.settings, logsvc.Discard())
			res, err := r.Resolve(context.Background(), "u1", tt.query)
			r.Drain()

			if tt.wantErr {
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, "Missing academic period", verr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Period)
			assert.Equal(t, tt.wantSource, res.Source)
			if tt.wantSource == SourceUpstream {
				assert.NotNil(t, res.Settings)
			}
		})
	}
}

func TestResolver_PersistsQueryPeriod(t *testing.T) {
	profiles := &fakeProfiles{data: map[string]Profile{"u1": {Semester: "1", SchoolYear: "2024"}}}
	r := NewResolver(profiles, &fakeSettings{}, logsvc.Discard())
	ctx := context.Background()

	_, err := r.Resolve(ctx, "u1", PeriodQuery{Semester: "2", SchoolYear: "2024"})
	require.NoError(t, err)
	r.Drain()
	assert.Equal(t, 1, profiles.writes)

	res, err := r.Resolve(ctx, "u1", PeriodQuery{})
	require.NoError(t, err)
	assert.Equal(t, SourceProfile, res.Source)
	assert.Equal(t, Period{Semester: "2", SchoolYear: "2024"}, res.Period)

	// same period again: nothing to write
	_, err = r.Resolve(ctx, "u1", PeriodQuery{Semester: "2", SchoolYear: "2024"})
	require.NoError(t, err)
	r.Drain()
	assert.Equal(t, 1, profiles.writes)
}

func TestResolver_UpstreamErrorPropagates(t *testing.T) {
	down := &records.UnavailableError{Endpoint: "GET /settings/current", Err: errors.New("refused")}
	r := NewResolver(&fakeProfiles{err: errors.New("db down")}, &fakeSettings{err: down}, logsvc.Discard())

	_, err := r.Resolve(context.Background(), "u1", PeriodQuery{})
	assert.Equal(t, down, errors.Cause(err))
}

func TestValidateQuery(t *testing.T) {
	_, err := ValidateQuery(PeriodQuery{Semester: "fourth", SchoolYear: "25"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []core.FieldError{
		{Field: "semester", Error: "must be one of: 1, 2, summer"},
		{Field: "schoolYear", Error: "must be a year (YYYY) or a year range (YYYY-YYYY)"},
	}, verr.Fields)

	p, err := ValidateQuery(PeriodQuery{Semester: " Summer ", SchoolYear: " 2024-2025 "})
	require.NoError(t, err)
	assert.Equal(t, Period{Semester: "summer", SchoolYear: "2024-2025"}, p)
}

func TestResolver_AcademicSettingsFallback(t *testing.T) {
	r := NewResolver(&fakeProfiles{}, &fakeSettings{err: errors.New("down")}, logsvc.Discard())
	as := r.AcademicSettings(context.Background(), Resolution{Period: Period{Semester: "1", SchoolYear: "2025"}})
	assert.Equal(t, records.AcademicSettings{
		CurrentSemester:   "1",
		CurrentSchoolYear: "2025",
		Semesters:         []string{"1", "2", "summer"},
		SchoolYears:       []string{"2025"},
	}, as)
}
