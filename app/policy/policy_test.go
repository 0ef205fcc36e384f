package policy

import (
	"testing"

	"lostfound/app/models"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		action  Action
		general bool
		officer bool
	}{
		{ActionCreatePost, true, true},
		{ActionFileClaim, true, true},
		{ActionWithdrawClaim, true, true},
		{ActionAddComment, true, true},
		{ActionLike, true, true},
		{ActionOpenForReview, false, true},
		{ActionDecide, false, true},
		{ActionViewReviewQueue, false, true},
		{ActionClosePost, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.general, CanPerform(models.RoleGeneral, tt.action))
			assert.Equal(t, tt.officer, CanPerform(models.RoleOfficer, tt.action))
		})
	}
}

func TestCanPerformDeniesUnknown(t *testing.T) {
	assert.False(t, CanPerform("Admin", ActionCreatePost))
	assert.False(t, CanPerform("", ActionLike))
	assert.False(t, CanPerform(models.RoleOfficer, "deletePost"))
}

func TestActionsCoverTable(t *testing.T) {
	assert.Len(t, Actions(), len(table))
	for _, a := range Actions() {
		_, ok := table[a]
		assert.True(t, ok, "action %s missing from table", a)
	}
}
