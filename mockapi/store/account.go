package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// PasswordCost is the bcrypt cost used for new passwords.
var PasswordCost = 12

type Account struct {
	ID              uint   `gorm:"primaryKey"`
	Username        string `gorm:"uniqueIndex;size:150;not null"`
	Email           string `gorm:"size:254"`
	Password        []byte `gorm:"not null"`
	Role            string `gorm:"size:20;not null"`
	Phone           *string
	PagePermissions datatypes.JSONSlice[string]
	IsStaff         bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a *Account) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	a.Password = hashed
	return nil
}

func (a *Account) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(a.Password, []byte(password))
}

// RefreshToken tracks issued refresh tokens by jti so logout can blacklist them.
type RefreshToken struct {
	JTI       string `gorm:"primaryKey;size:36"`
	AccountID uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
