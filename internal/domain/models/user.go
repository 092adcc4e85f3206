package models

import (
	"encoding/json"
	"errors"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

func ToRole(s string) (Role, error) {
	switch s {
	case string(RoleStudent):
		return RoleStudent, nil
	case string(RoleCompany):
		return RoleCompany, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", errors.New("invalid role")
	}
}

const timestampLayout = "2006-01-02T15:04:05.000000"

// Timestamp formats t the way created_at and applied_at are stored.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// User is a single record of the users collection. Student and company fields
// are only emitted for their own role.
type User struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Email     string `gorm:"uniqueIndex"`
	Password  string
	Role      Role
	CreatedAt string

	Name           string
	College        string
	GraduationYear string

	CompanyName        string
	CompanyDescription string
	Verified           bool
}

type userBase struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
}

type studentFields struct {
	Name           string        `json:"name"`
	College        string        `json:"college"`
	GraduationYear LenientString `json:"graduation_year"`
}

type companyFields struct {
	CompanyName        string `json:"company_name"`
	CompanyDescription string `json:"company_description"`
	Verified           bool   `json:"verified"`
}

func (u User) MarshalJSON() ([]byte, error) {
	base := userBase{ID: u.ID, Email: u.Email, Password: u.Password, Role: u.Role, CreatedAt: u.CreatedAt}

	switch u.Role {
	case RoleStudent:
		return json.Marshal(struct {
			userBase
			studentFields
		}{base, studentFields{u.Name, u.College, LenientString(u.GraduationYear)}})
	case RoleCompany:
		return json.Marshal(struct {
			userBase
			companyFields
		}{base, companyFields{u.CompanyName, u.CompanyDescription, u.Verified}})
	default:
		return json.Marshal(base)
	}
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		userBase
		studentFields
		companyFields
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = User{
		ID:                 raw.ID,
		Email:              raw.Email,
		Password:           raw.Password,
		Role:               raw.Role,
		CreatedAt:          raw.CreatedAt,
		Name:               raw.Name,
		College:            raw.College,
		GraduationYear:     string(raw.GraduationYear),
		CompanyName:        raw.CompanyName,
		CompanyDescription: raw.CompanyDescription,
		Verified:           raw.Verified,
	}
	return nil
}

// Public returns a copy that is safe to send to clients.
func (u User) Public() User {
	u.Password = ""
	return u
}

func (u User) GetID() int {
	return u.ID
}

type UserPatch struct {
	Password *string
	Verified *bool
}

func (p UserPatch) Apply(u *User) {
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
}
