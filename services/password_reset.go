package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eldercare-server/models"
)

const mailTimeout = 30 * time.Second

// PasswordResetService issues and redeems emailed one-time codes
type PasswordResetService struct {
	db          *gorm.DB
	credentials *CredentialService
	mailer      Mailer
	ttl         time.Duration
	now         func() time.Time
	generate    func() (string, error)
}

func NewPasswordResetService(db *gorm.DB, credentials *CredentialService, mailer Mailer, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		credentials: credentials,
		mailer:      mailer,
		ttl:         ttl,
		now:         utcNow,
		generate:    generateCode,
	}
}

// RequestCode replaces any pending code for the account and mails a new one
func (s *PasswordResetService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return storeError(err, "no account with this email", "", "failed to load account")
	}

	code, err := s.generate()
	if err != nil {
		return internal("failed to generate code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return internal("failed to generate code", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND used_at IS NULL", email).Delete(&models.PasswordResetCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetCode{
			Email:     email,
			CodeHash:  string(hash),
			ExpiresAt: now.Add(s.ttl),
		}).Error
	})
	if err != nil {
		return internal("failed to store code", err)
	}

	subject := "Your password reset code"
	body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not request this, ignore this email.\n",
		user.Name, code, int(s.ttl.Minutes()))
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.Send(sendCtx, email, subject, body); err != nil {
			log.Printf("❌ Failed to send reset code to %s: %v", email, err)
		}
	}()
	return nil
}

// VerifyCode checks a code without consuming it
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	_, err := s.match(s.db.WithContext(ctx), normalizeEmail(email), code)
	return err
}

// ResetPassword consumes the code and stores the new password hash
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	hash, err := s.credentials.HashPassword(newPassword)
	if err != nil {
		return internal("failed to process password", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.match(tx, email, code)
		if err != nil {
			return err
		}

		used := s.now()
		res := tx.Model(&models.PasswordResetCode{}).
			Where("id = ? AND used_at IS NULL", record.ID).
			Update("used_at", used)
		if res.Error != nil {
			return internal("failed to consume code", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalid("invalid or expired code")
		}

		res = tx.Model(&models.User{}).Where("email = ?", email).Update("password_hash", hash)
		if res.Error != nil {
			return internal("failed to update password", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("no account with this email")
		}
		return nil
	})
}

// PurgeExpired deletes codes that expired or were used before now
func (s *PasswordResetService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&models.PasswordResetCode{})
	if res.Error != nil {
		return 0, internal("failed to purge reset codes", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *PasswordResetService) match(db *gorm.DB, email, code string) (*models.PasswordResetCode, error) {
	var record models.PasswordResetCode
	err := db.Where("email = ? AND used_at IS NULL", email).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("no code requested for this email")
	}
	if err != nil {
		return nil, internal("failed to load code", err)
	}
	if !record.IsUsable(s.now()) {
		return nil, invalid("invalid or expired code")
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return nil, invalid("invalid or expired code")
	}
	return &record, nil
}

// generateCode returns a uniformly random 6-digit code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
