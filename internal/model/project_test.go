package model

import "testing"

func TestProject_IsCompleted(t *testing.T) {
	testCases := []struct {
		status ProcessingStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.status), func(t *testing.T) {
			p := &Project{ProcessingStatus: tc.status}
			if got := p.IsCompleted(); got != tc.want {
				t.Errorf("IsCompleted() = %v, want %v", got, tc.want)
			}
		})
	}
}
