package models

import "time"

const (
	UserPending  = "pending"
	UserVerified = "verified"
	UserActive   = "active"
)

// User represents a registered user
type User struct {
	ID           string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email" gorm:"uniqueIndex;not null"`
	Password     string    `bson:"password" json:"-"` // Password is not returned in JSON
	GoogleID     string    `bson:"google_id,omitempty" json:"-"`
	Status       string    `bson:"status" json:"status"` // pending, verified, active
	OTP          string    `bson:"otp" json:"-"`         // OTP for email verification
	OTPExpiresAt time.Time `bson:"otp_expires_at" json:"-"`
	OTPAttempts  int       `bson:"otp_attempts" json:"-"` // wrong guesses against the current OTP
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
