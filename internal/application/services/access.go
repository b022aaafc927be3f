package services

import (
	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// authorizer decides whether actor may mutate task.
type authorizer func(actor entities.Actor, task *entities.Task) error

// ownerOrAdmin allows the task creator and admins.
func ownerOrAdmin(actor entities.Actor, task *entities.Task) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsAnonymous() {
		return entities.ErrUnauthenticated
	}
	if actor.ID != task.CreatedBy {
		return entities.ErrForbidden
	}
	return nil
}

// adminOnly allows admins.
func adminOnly(actor entities.Actor, _ *entities.Task) error {
	if !actor.IsAdmin() {
		return entities.ErrForbidden
	}
	return nil
}

// anyone is used once a share link has already granted the permission.
func anyone(entities.Actor, *entities.Task) error { return nil }

// authenticated allows any signed-in actor.
func authenticated(actor entities.Actor, _ *entities.Task) error {
	if actor.IsAnonymous() {
		return entities.ErrUnauthenticated
	}
	return nil
}

// canDeleteComment allows the comment author and admins, never the task owner alone.
func canDeleteComment(actor entities.Actor, c *entities.Comment) error {
	if actor.IsAdmin() {
		return nil
	}
	if c.AuthorID == nil || actor.IsAnonymous() || *c.AuthorID != actor.ID {
		return entities.ErrForbidden
	}
	return nil
}

// canDeleteFile allows the uploader and admins.
func canDeleteFile(actor entities.Actor, f *entities.File) error {
	if actor.IsAdmin() {
		return nil
	}
	if f.UploadedBy == nil || actor.IsAnonymous() || *f.UploadedBy != actor.ID {
		return entities.ErrForbidden
	}
	return nil
}
