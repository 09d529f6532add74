package rbac

const (
	PermEssaySubmit    = "essay:submit"
	PermEssayViewOwn   = "essay:view-own"
	PermEssayViewAll   = "essay:view-all"
	PermEssayReturn    = "essay:return"
	PermGradeAI        = "grade:ai"
	PermGradeManual    = "grade:manual"
	PermGradePreview   = "grade:preview"
	PermRubricView     = "rubric:view"
	PermRubricEdit     = "rubric:edit"
	PermAssignmentView = "assignment:view"
	PermAssignmentEdit = "assignment:edit"
	PermUsersCreate    = "users:create"
	PermUsersList      = "users:list"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		PermEssaySubmit,
		PermEssayViewOwn,
		PermRubricView,
		PermAssignmentView,
		PermGradePreview,
	},
	"teacher": {
		PermEssayViewAll,
		PermEssayReturn,
		"grade:*",
		"rubric:*",
		"assignment:*",
		PermUsersList,
	},
	"admin": {
		"*", // everything
	},
}
