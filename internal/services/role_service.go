package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
)

// roleService resolves session roles against users and the usuarios fallback.
type roleService struct {
	db          *gorm.DB
	adminEmails map[string]struct{}
}

// NewRoleService creates a RoleResolver. adminEmails is the allow-list
// consulted for the admin dashboard; comparisons are case-insensitive.
func NewRoleService(db *gorm.DB, adminEmails []string) RoleResolver {
	allow := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			allow[e] = struct{}{}
		}
	}
	return &roleService{db: db, adminEmails: allow}
}

// subject is what resolution knows about a session before matching roles.
type subject struct {
	user  *models.User
	email string // proven email, empty when nobody vouched for it
}

// Resolve runs the lookup chain: users by id, usuarios by uid, usuarios by
// email. The first row whose role is accepted wins. The email step only runs
// for a proven email. A disabled users row ends resolution with
// ErrUserInactive; when nothing matches the result is ErrNotAuthorized.
func (s *roleService) Resolve(id Identity, accepted []models.Role) (*RoleMatch, error) {
	match, _, err := s.resolve(id, accepted)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, apperrors.ErrNotAuthorized
	}
	return match, nil
}

// ResolveDashboard resolves the role for dashboard d. The admin dashboard also
// admits a proven allow-listed email that holds no matching role.
func (s *roleService) ResolveDashboard(id Identity, d models.Dashboard) (*RoleMatch, error) {
	match, sub, err := s.resolve(id, d.AcceptedRoles())
	if err != nil {
		return nil, err
	}
	if match != nil {
		return match, nil
	}
	if d.AllowsAdminEmail() && s.isAdminEmail(sub.email) {
		return &RoleMatch{Role: models.RoleAdmin, Source: SourceAdminEmail, AdminEmail: true}, nil
	}
	return nil, apperrors.ErrNotAuthorized
}

func (s *roleService) resolve(id Identity, accepted []models.Role) (*RoleMatch, *subject, error) {
	sub, err := s.load(id)
	if err != nil {
		return nil, nil, err
	}
	adminEmail := s.isAdminEmail(sub.email)

	if sub.user != nil && roleIn(sub.user.Role, accepted) {
		return &RoleMatch{Role: sub.user.Role, Source: SourceUsers, AdminEmail: adminEmail}, sub, nil
	}

	if id.UID != "" {
		match, err := s.matchUsuario("uid = ?", id.UID, accepted, SourceUsuariosUID)
		if err != nil {
			return nil, nil, err
		}
		if match != nil {
			match.AdminEmail = adminEmail
			return match, sub, nil
		}
	}

	if sub.email != "" {
		match, err := s.matchUsuario("LOWER(email) = ?", sub.email, accepted, SourceUsuariosEmail)
		if err != nil {
			return nil, nil, err
		}
		if match != nil {
			match.AdminEmail = adminEmail
			return match, sub, nil
		}
	}

	return nil, sub, nil
}

// load fetches the users row of id, if any, and decides which email can be
// trusted. A disabled row stops every later step.
func (s *roleService) load(id Identity) (*subject, error) {
	sub := &subject{}
	if id.UID != "" {
		var user models.User
		err := s.db.Select("id", "email", "role", "is_active", "email_verified").Where("id = ?", id.UID).First(&user).Error
		switch {
		case err == nil:
			if !user.IsActive {
				return nil, apperrors.ErrUserInactive
			}
			sub.user = &user
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	sub.email = provenEmail(id, sub.user)
	return sub, nil
}

// provenEmail returns the session email when the identity provider vouched
// for it or the matching users row was verified.
func provenEmail(id Identity, user *models.User) string {
	email := normalizeEmail(id.Email)
	if email == "" {
		return ""
	}
	if id.EmailVerified {
		return email
	}
	if user != nil && user.EmailVerified && normalizeEmail(user.Email) == email {
		return email
	}
	return ""
}

// matchUsuario returns the first usuarios row matching where whose role is accepted.
func (s *roleService) matchUsuario(where string, arg string, accepted []models.Role, source RoleSource) (*RoleMatch, error) {
	var rows []models.Usuario
	if err := s.db.Select("id", "role").Where(where, arg).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range rows {
		if roleIn(row.Role, accepted) {
			return &RoleMatch{Role: row.Role, Source: source}, nil
		}
	}
	return nil, nil
}

func (s *roleService) isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	_, ok := s.adminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func roleIn(r models.Role, accepted []models.Role) bool {
	for _, a := range accepted {
		if a == r {
			return true
		}
	}
	return false
}
