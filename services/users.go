package services

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"eldercare-server/models"
	"eldercare-server/utils"
)

// UserService manages accounts and authentication
type UserService struct {
	db          *gorm.DB
	credentials *CredentialService
}

func NewUserService(db *gorm.DB, credentials *CredentialService) *UserService {
	return &UserService{db: db, credentials: credentials}
}

// UserFilter narrows the user listing
type UserFilter struct {
	Role   models.UserRole
	Search string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token *TokenResponse `json:"token"`
	User  models.User    `json:"user"`
}

// Register creates an account; email and phone must both be unused
func (s *UserService) Register(ctx context.Context, input models.UserRegister) (*AuthResult, error) {
	role := input.Role
	if role == "" {
		role = models.RoleProvider
	}
	if !role.IsValid() {
		return nil, invalid("role must be admin or provider")
	}

	email := normalizeEmail(input.Email)
	phone := utils.NormalizePhone(input.Phone)
	if err := s.ensureUnique(ctx, email, phone, 0); err != nil {
		return nil, err
	}

	hash, err := s.credentials.HashPassword(input.Password)
	if err != nil {
		return nil, internal("failed to process password", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Age:          input.Age,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, storeError(err, "", "email or phone already registered", "failed to create account")
	}

	token, err := s.credentials.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Login checks the password and issues a token
func (s *UserService) Login(ctx context.Context, input models.UserLogin) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, unauthorized("incorrect email or password")
		}
		return nil, internal("failed to load user", err)
	}
	if !s.credentials.VerifyPassword(input.Password, user.PasswordHash) {
		return nil, unauthorized("incorrect email or password")
	}

	token, err := s.credentials.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to the stored user
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.credentials.ResolveToken(token)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, unauthorized("user associated with token not found")
		}
		return nil, internal("failed to load user", err)
	}
	return &user, nil
}

// Get loads one user with service statistics
func (s *UserService) Get(ctx context.Context, id uint) (*models.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, storeError(err, "user not found", "", "failed to load user")
	}
	resp, err := s.withStats(ctx, user)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List is the single user listing, each entry annotated with statistics
func (s *UserService) List(ctx context.Context, filter UserFilter) ([]models.UserResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var users []models.User
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, internal("failed to list users", err)
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		resp, err := s.withStats(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// UpdateProfile changes the actor's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, id uint, input models.UserUpdate) (*models.UserResponse, error) {
	if actor.ID == 0 || actor.ID != id {
		return nil, forbidden("cannot modify another user's profile")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, storeError(err, "user not found", "", "failed to load user")
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Age != nil {
		updates["age"] = *input.Age
	}
	email, phone := "", ""
	if input.Email != nil {
		email = normalizeEmail(*input.Email)
		updates["email"] = email
	}
	if input.Phone != nil {
		phone = utils.NormalizePhone(*input.Phone)
		updates["phone"] = phone
	}
	if err := s.ensureUnique(ctx, email, phone, user.ID); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, storeError(err, "", "email or phone already registered", "failed to update user")
		}
	}
	return s.Get(ctx, user.ID)
}

// Delete removes a user and everything they own in one transaction. Needs
// the user authored take their tasks and feedback with them.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireSelfOrAdmin(actor, id, "cannot delete another user"); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return storeError(err, "user not found", "", "failed to load user")
		}

		authoredNeeds := tx.Model(&models.ServiceNeed{}).Select("id").Where("created_by = ?", id)
		affectedTasks := tx.Model(&models.Task{}).Select("id").
			Where("provider_id = ? OR need_id IN (?)", id, authoredNeeds)

		steps := []struct {
			what  string
			query *gorm.DB
			model interface{}
		}{
			{"feedback", tx.Where("task_id IN (?)", affectedTasks), &models.Feedback{}},
			{"tasks", tx.Where("provider_id = ? OR need_id IN (?)", id, authoredNeeds), &models.Task{}},
			{"needs", tx.Where("created_by = ?", id), &models.ServiceNeed{}},
			{"appointments", tx.Where("user_id = ?", id), &models.Appointment{}},
			{"health records", tx.Where("user_id = ?", id), &models.HealthRecord{}},
			{"reset codes", tx.Where("email = ?", user.Email), &models.PasswordResetCode{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return internal("failed to delete "+step.what, err)
			}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return internal("failed to delete user", err)
		}
		return nil
	})
}

func (s *UserService) withStats(ctx context.Context, user models.User) (models.UserResponse, error) {
	resp := models.UserResponse{User: user}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Task{}).Where("provider_id = ?", user.ID).Count(&resp.ServiceCount).Error; err != nil {
		return resp, internal("failed to count tasks", err)
	}

	var avg float64
	tasks := db.Model(&models.Task{}).Select("id").Where("provider_id = ?", user.ID)
	if err := db.Model(&models.Feedback{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("task_id IN (?)", tasks).
		Scan(&avg).Error; err != nil {
		return resp, internal("failed to average ratings", err)
	}
	resp.AverageRating = roundTenth(avg)
	return resp, nil
}

// ensureUnique checks email and phone against every user except excludeID
func (s *UserService) ensureUnique(ctx context.Context, email, phone string, excludeID uint) error {
	if email == "" && phone == "" {
		return nil
	}
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", excludeID)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return internal("failed to check existing users", err)
	}
	if count > 0 {
		return conflict("email or phone already registered")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
