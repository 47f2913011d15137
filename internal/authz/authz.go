// Package authz holds the access rules shared by every route touching
// projects, tasks and users. Handlers and services must go through these
// functions instead of comparing IDs themselves.
package authz

import "github.com/yukikurage/project-tracker-api/internal/models"

// Identity is the verified caller produced by the auth middleware.
type Identity struct {
	UserID uint64
	Role   models.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// HasRole reports whether the identity carries one of roles.
func HasRole(id Identity, roles ...models.UserRole) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// CanAccessProject: owner or member.
func CanAccessProject(id Identity, project *models.Project) bool {
	if project == nil {
		return false
	}
	return project.OwnerID == id.UserID || project.HasMember(id.UserID)
}

// CanManageProject: owner only. Used for updates.
func CanManageProject(id Identity, project *models.Project) bool {
	return project != nil && project.OwnerID == id.UserID
}

// CanDeleteProject: owner or Admin.
func CanDeleteProject(id Identity, project *models.Project) bool {
	return project != nil && (project.OwnerID == id.UserID || id.IsAdmin())
}

// CanAccessTask derives entirely from the parent project. project must be
// the task's own parent; anything else is denied.
func CanAccessTask(id Identity, task *models.Task, project *models.Project) bool {
	if task == nil || project == nil || task.ProjectID != project.ID {
		return false
	}
	return CanAccessProject(id, project)
}

// CanViewUser: self or Admin. Also governs profile updates and per-user
// analytics.
func CanViewUser(id Identity, targetID uint64) bool {
	return id.UserID == targetID || id.IsAdmin()
}

// CanChangeRole: Admin only.
func CanChangeRole(id Identity) bool {
	return id.IsAdmin()
}
