package services

import (
	"eldercare-server/models"
)

// Actor is the authenticated identity performing an operation
type Actor struct {
	ID   uint
	Role models.UserRole
}

// ActorFromUser builds an actor from a loaded user
func ActorFromUser(u models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Authorize reports whether the actor holds exactly the required role.
// Roles are flat: an admin is not a provider and vice versa.
func Authorize(actor Actor, required models.UserRole) bool {
	return actor.ID != 0 && actor.Role.IsValid() && actor.Role == required
}

// requireRole fails closed with Forbidden when the actor lacks the role
func requireRole(actor Actor, required models.UserRole, msg string) error {
	if !Authorize(actor, required) {
		return forbidden(msg)
	}
	return nil
}

// requireSelfOrAdmin allows the owner of a record or any admin
func requireSelfOrAdmin(actor Actor, ownerID uint, msg string) error {
	if actor.ID != 0 && actor.ID == ownerID {
		return nil
	}
	if Authorize(actor, models.RoleAdmin) {
		return nil
	}
	return forbidden(msg)
}
