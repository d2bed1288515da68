package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "ecoaceite/internal/errors"
	"ecoaceite/internal/models"
	"ecoaceite/internal/pagination"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new local user. Only public roles can be self-assigned.
func (s *userService) CreateUser(input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleUsuario
	}
	if !role.IsPublic() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role cannot be self-assigned")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:         email,
		Password:      string(hashedPassword),
		Nombre:        strings.TrimSpace(input.Nombre),
		Role:          role,
		Telefono:      input.Telefono,
		Direccion:     input.Direccion,
		Distrito:      input.Distrito,
		CodigoPostal:  input.CodigoPostal,
		NumViviendas:  input.NumViviendas,
		NombreEntidad: input.NombreEntidad,
		Provider:      "local",
		IsActive:      true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", normalizeEmail(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	if user.Password == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and stamps last_login_at. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !s.VerifyPassword(&user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

// StoreRefreshTokenHash replaces the stored refresh-token hash of a user.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh-token hash of an active user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", apperrors.ErrUserInactive
	}
	return user.RefreshTokenHash, nil
}

// ClearRefreshTokenHash revokes the current refresh token.
func (s *userService) ClearRefreshTokenHash(userID string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", "").Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *userService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Nombre != nil {
		updates["nombre"] = strings.TrimSpace(*update.Nombre)
	}
	if update.Telefono != nil {
		updates["telefono"] = *update.Telefono
	}
	if update.Direccion != nil {
		updates["direccion"] = *update.Direccion
	}
	if update.Distrito != nil {
		updates["distrito"] = *update.Distrito
	}
	if update.CodigoPostal != nil {
		updates["codigo_postal"] = *update.CodigoPostal
	}
	if update.NumViviendas != nil {
		if *update.NumViviendas < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "num_viviendas must not be negative")
		}
		updates["num_viviendas"] = *update.NumViviendas
	}
	if update.NombreEntidad != nil {
		updates["nombre_entidad"] = *update.NombreEntidad
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetUserByID(userID)
}

// EnsureExternalUser returns the users row of an externally authenticated
// session, creating it with role usuario on first sight. The provider's
// subject becomes the row id so role resolution can match it directly. A
// verified email claim marks the row verified.
func (s *userService) EnsureExternalUser(id Identity, nombre, provider string) (*models.User, error) {
	if id.UID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "uid is required")
	}
	email := normalizeEmail(id.Email)

	user, err := s.GetUserByID(id.UID)
	if err == nil {
		if id.EmailVerified && !user.EmailVerified && user.Email == email {
			if err := s.db.Model(user).Update("email_verified", true).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			user.EmailVerified = true
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	user = &models.User{
		ID:            id.UID,
		Email:         email,
		EmailVerified: id.EmailVerified,
		Nombre:        nombre,
		Role:          models.RoleUsuario,
		Provider:      provider,
		IsActive:      true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ListUsers returns a page of users, optionally restricted to one role.
func (s *userService) ListUsers(page pagination.PageRequest, role *models.Role) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	base := s.db.Model(&models.User{})
	if role != nil {
		base = base.Where("role = ?", *role)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	order := page.OrderClause(map[string]string{"email": "email", "created_at": "created_at", "role": "role"}, "created_at DESC")
	var users []models.User
	if err := base.Order(order).Scopes(pagination.Paginate(page)).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(users, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ChangeRole sets the role of a user on behalf of an actor holding actorRole.
// Only a superadmin may grant admin or superadmin.
func (s *userService) ChangeRole(actorRole models.Role, userID string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown role")
	}
	if role.IsPrivileged() && actorRole != models.RoleSuperadmin {
		return nil, apperrors.ErrRoleNotAssignable
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role.IsPrivileged() && actorRole != models.RoleSuperadmin {
		return nil, apperrors.ErrRoleNotAssignable
	}

	if err := s.db.Model(user).Update("role", role).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Role = role
	return user, nil
}

// SetActive enables or disables a user. Disabling also revokes its refresh token.
func (s *userService) SetActive(userID string, active bool) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_active": active}
	if !active {
		updates["refresh_token_hash"] = ""
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.IsActive = active
	return user, nil
}

// SetEmailVerified records whether an operator confirmed that the user owns
// their email. Only verified emails take part in email-based role lookup.
func (s *userService) SetEmailVerified(userID string, verified bool) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("email_verified", verified).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.EmailVerified = verified
	return user, nil
}

// GrantRoleByEmail sets the role of the user with email without the
// superadmin check. It backs the operator CLI.
func (s *userService) GrantRoleByEmail(email string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown role")
	}

	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Role = role
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
