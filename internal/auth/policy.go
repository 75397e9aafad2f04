package auth

import "github.com/isdelr/inkwell-be/internal/models"

// CanModify reports whether p owns the resource. Ownership is the only rule for posts,
// comments and images; there is no sharing or admin override.
func CanModify(p Principal, resourceOwnerID string) bool {
	return p.ID != "" && p.ID == resourceOwnerID
}

// RequireRole returns ErrForbidden unless p has exactly the given role.
func RequireRole(p Principal, role models.Role) error {
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}
