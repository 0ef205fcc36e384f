package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClaimValidation(t *testing.T) {
	tests := []struct {
		name    string
		claim   *Claim
		wantErr bool
	}{
		{
			name:    "valid claim",
			claim:   NewClaim("p1", "u1", Evidence{Description: "blue case"}, "08123"),
			wantErr: false,
		},
		{
			name:    "blank evidence",
			claim:   NewClaim("p1", "u1", Evidence{Description: "  "}, "08123"),
			wantErr: true,
		},
		{
			name:    "blank contact",
			claim:   NewClaim("p1", "u1", Evidence{Description: "blue case"}, "\t"),
			wantErr: true,
		},
		{
			name:    "missing claimant",
			claim:   NewClaim("p1", "", Evidence{Description: "blue case"}, "08123"),
			wantErr: true,
		},
		{
			name:    "unknown status",
			claim:   &Claim{PostID: "p1", ClaimantID: "u1", Evidence: Evidence{Description: "x"}, Contact: "c", Status: "Lost"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.claim.BeforeCreate()
			err := tt.claim.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClaimZeroCreationTime(t *testing.T) {
	claim := NewClaim("p1", "u1", Evidence{Description: "blue case"}, "08123")
	claim.CreatedAt = time.Time{}
	assert.Error(t, claim.Validate())
}

func TestClaimStatusClasses(t *testing.T) {
	tests := []struct {
		status   ClaimStatus
		active   bool
		terminal bool
	}{
		{ClaimStatusPending, true, false},
		{ClaimStatusUnderReview, true, false},
		{ClaimStatusApproved, false, true},
		{ClaimStatusRejected, false, true},
		{ClaimStatusWithdrawn, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestClaimClone(t *testing.T) {
	claim := NewClaim("p1", "u1", Evidence{Description: "blue case"}, "08123")
	cp := claim.Clone()
	cp.Status = ClaimStatusApproved
	assert.Equal(t, ClaimStatusPending, claim.Status)
}
