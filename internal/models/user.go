// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20)"` // empty until onboarding completes
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ProfileData  JSONB      `json:"profile_data" gorm:"type:jsonb"`
	OnboardedAt  *time.Time `json:"onboarded_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Requests  []ProductRequest `json:"requests,omitempty" gorm:"foreignKey:UserID"`
	Offers    []Offer          `json:"offers,omitempty" gorm:"foreignKey:SellerID"`
	Payments  []Payment        `json:"payments,omitempty" gorm:"foreignKey:BuyerID"`
	Addresses []Address        `json:"addresses,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// CanSubmitOffer is the capability gate for offer creation. Capabilities are
// resolved from the role at the authorization boundary so business logic
// never inspects the role string directly.
func (u *User) CanSubmitOffer() bool {
	return u.Role == UserRoleSeller || u.Role == UserRoleAdmin
}

// CanPostRequest gates sourcing-request creation.
func (u *User) CanPostRequest() bool {
	return u.Role == UserRoleBuyer || u.Role == UserRoleAdmin
}
