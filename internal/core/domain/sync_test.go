package domain

import "testing"

func TestAggregate(t *testing.T) {
	ok := &SyncResult{Provider: ProviderStrava, Status: SyncStatusSuccess}
	bad := &SyncResult{Provider: ProviderTickTick, Status: SyncStatusError}

	tests := []struct {
		name    string
		results map[Provider]*SyncResult
		skipped int
		want    OverallStatus
	}{
		{
			name:    "all succeed",
			results: map[Provider]*SyncResult{ProviderStrava: ok, ProviderTickTick: {Provider: ProviderTickTick, Status: SyncStatusSuccess}},
			want:    OverallSuccess,
		},
		{
			name:    "one fails",
			results: map[Provider]*SyncResult{ProviderStrava: ok, ProviderTickTick: bad},
			want:    OverallPartialFailure,
		},
		{
			name:    "all fail",
			results: map[Provider]*SyncResult{ProviderStrava: {Provider: ProviderStrava, Status: SyncStatusError}, ProviderTickTick: bad},
			want:    OverallFailure,
		},
		{
			name:    "only enabled provider fails but one was skipped",
			results: map[Provider]*SyncResult{ProviderTickTick: bad},
			skipped: 1,
			want:    OverallPartialFailure,
		},
		{
			name:    "everything skipped",
			results: map[Provider]*SyncResult{},
			skipped: 2,
			want:    OverallSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.results, tt.skipped); got != tt.want {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		status OverallStatus
		want   int
	}{
		{OverallSuccess, 0},
		{OverallPartialFailure, 2},
		{OverallFailure, 1},
	}
	for _, tt := range tests {
		if got := tt.status.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestSyncConfigEnabled(t *testing.T) {
	cfg := SyncConfig{SkipStrava: true}
	if cfg.Enabled(ProviderStrava) {
		t.Error("expected strava disabled")
	}
	if !cfg.Enabled(ProviderTickTick) {
		t.Error("expected ticktick enabled")
	}
}
