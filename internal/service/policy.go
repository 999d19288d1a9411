package service

import "task-manager/internal/models"

// CanAccess is the single ownership rule: admins see everything, everyone
// else only what they own.
func CanAccess(actor models.Identity, ownerID string) bool {
	return actor.IsAdmin() || (actor.ID != "" && actor.ID == ownerID)
}
