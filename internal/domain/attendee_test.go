package domain

import (
	"errors"
	"testing"
)

func TestAttendeeStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   AttendeeStatus
		expected bool
	}{
		{StatusPending, false},
		{StatusVerified, false},
		{StatusRejected, false},
		{StatusClaimed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAttendeeStatusIsValid(t *testing.T) {
	tests := []struct {
		status   AttendeeStatus
		expected bool
	}{
		{StatusPending, true},
		{StatusVerified, true},
		{StatusRejected, true},
		{StatusClaimed, true},
		{AttendeeStatus("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAttendeeStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     AttendeeStatus
		to       AttendeeStatus
		expected bool
	}{
		// From pending
		{"pending -> verified", StatusPending, StatusVerified, true},
		{"pending -> rejected", StatusPending, StatusRejected, true},
		{"pending -> claimed", StatusPending, StatusClaimed, true},
		{"pending -> pending", StatusPending, StatusPending, false},

		// From verified
		{"verified -> claimed", StatusVerified, StatusClaimed, true},
		{"verified -> rejected", StatusVerified, StatusRejected, false},
		{"verified -> pending", StatusVerified, StatusPending, false},

		// From rejected
		{"rejected -> claimed", StatusRejected, StatusClaimed, true},
		{"rejected -> verified", StatusRejected, StatusVerified, false},

		// Terminal state
		{"claimed -> any", StatusClaimed, StatusVerified, false},
		{"claimed -> pending", StatusClaimed, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAttendeeScanError(t *testing.T) {
	tests := []struct {
		name    string
		status  AttendeeStatus
		wantErr error
	}{
		{"pending scans cleanly", StatusPending, nil},
		{"verified already scanned", StatusVerified, ErrAlreadyScanned},
		{"rejected already scanned", StatusRejected, ErrAlreadyScanned},
		{"claimed is terminal", StatusClaimed, ErrAlreadyClaimed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Attendee{Status: tt.status}
			if err := a.ScanError(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ScanError() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
