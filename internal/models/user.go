package models

// User represents a registered chat participant. Rows are created only when
// an OTP verification completes, so Verified is true for every committed user.
type User struct {
	BaseModel
	Username     string `gorm:"uniqueIndex" json:"username"`
	Phone        string `gorm:"uniqueIndex" json:"phone"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	Verified     bool   `json:"verified"`
}
