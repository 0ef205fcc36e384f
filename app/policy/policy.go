// Package policy decides which role may perform which action.
package policy

import "lostfound/app/models"

type Action string

const (
	ActionCreatePost      Action = "createPost"
	ActionFileClaim       Action = "fileClaim"
	ActionWithdrawClaim   Action = "withdrawClaim"
	ActionAddComment      Action = "addComment"
	ActionLike            Action = "like"
	ActionOpenForReview   Action = "openForReview"
	ActionDecide          Action = "decide"
	ActionViewReviewQueue Action = "viewReviewQueue"
	ActionClosePost       Action = "closePost"
)

var table = map[Action]map[models.Role]bool{
	ActionCreatePost:      {models.RoleGeneral: true, models.RoleOfficer: true},
	ActionFileClaim:       {models.RoleGeneral: true, models.RoleOfficer: true},
	ActionWithdrawClaim:   {models.RoleGeneral: true, models.RoleOfficer: true},
	ActionAddComment:      {models.RoleGeneral: true, models.RoleOfficer: true},
	ActionLike:            {models.RoleGeneral: true, models.RoleOfficer: true},
	ActionOpenForReview:   {models.RoleOfficer: true},
	ActionDecide:          {models.RoleOfficer: true},
	ActionViewReviewQueue: {models.RoleOfficer: true},
	ActionClosePost:       {models.RoleOfficer: true},
}

// CanPerform reports whether role may perform action. Unknown roles and actions are denied.
func CanPerform(role models.Role, action Action) bool {
	return table[action][role]
}

// Actions lists every known action.
func Actions() []Action {
	return []Action{
		ActionCreatePost,
		ActionFileClaim,
		ActionWithdrawClaim,
		ActionAddComment,
		ActionLike,
		ActionOpenForReview,
		ActionDecide,
		ActionViewReviewQueue,
		ActionClosePost,
	}
}
