package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCredential(t *testing.T) {
	payload := EncodeCredential("evt1", "att1", 170000)
	require.Equal(t, "GPASS-EVENT:evt1:att1:170000", payload)
}

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *Credential
		wantErr error
	}{
		{
			name:    "valid",
			payload: "GPASS-EVENT:evt1:att1:170000",
			want:    &Credential{EventID: "evt1", AttendeeID: "att1", IssuedUnix: 170000},
		},
		{
			name:    "round trip",
			payload: EncodeCredential("evt-9", "att-9", 1700000000),
			want:    &Credential{EventID: "evt-9", AttendeeID: "att-9", IssuedUnix: 1700000000},
		},
		{
			name:    "too few fields",
			payload: "GPASS-EVENT:evt1:att1",
			wantErr: ErrMalformedCredential,
		},
		{
			name:    "too many fields",
			payload: "GPASS-EVENT:evt1:att1:170000:extra",
			wantErr: ErrMalformedCredential,
		},
		{
			name:    "wrong prefix",
			payload: "OTHER-EVENT:evt1:att1:170000",
			wantErr: ErrMalformedCredential,
		},
		{
			name:    "empty event id",
			payload: "GPASS-EVENT::att1:170000",
			wantErr: ErrMalformedCredential,
		},
		{
			name:    "non numeric timestamp",
			payload: "GPASS-EVENT:evt1:att1:abc",
			wantErr: ErrMalformedCredential,
		},
		{
			name:    "empty string",
			payload: "",
			wantErr: ErrMalformedCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCredential(tt.payload)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttendeeSelectable(t *testing.T) {
	tests := []struct {
		name     string
		attendee Attendee
		want     bool
	}{
		{"pending", Attendee{EmailStatus: EmailStatusPending}, true},
		{"failed", Attendee{EmailStatus: EmailStatusFailed}, true},
		{"retry scheduled treated like failed", Attendee{EmailStatus: EmailStatusRetryScheduled}, true},
		{"sent", Attendee{EmailStatus: EmailStatusSent}, false},
		{"checked in pending", Attendee{EmailStatus: EmailStatusPending, IsCheckedIn: true}, false},
		{"checked in failed", Attendee{EmailStatus: EmailStatusFailed, IsCheckedIn: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attendee.Selectable())
		})
	}
}
