package actor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/idhini/core"
)

// Roles
const (
	RoleAdmin     Role = "admin"
	RoleDeptHead  Role = "depthead"
	RoleMarketing Role = "marketing"
	RoleStaff     Role = "staff"
)

var (
	AllRoles = []Role{RoleAdmin, RoleDeptHead, RoleMarketing, RoleStaff}

	rolePriorities = map[Role]int{
		RoleAdmin:     30,
		RoleDeptHead:  20,
		RoleMarketing: 10,
		RoleStaff:     1,
	}
)

type Role string

func (r Role) IsValid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

type Actor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Department   string    `json:"department"` // declared affiliation (free-text name)
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a *Actor) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Actor) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a *Actor) IsDeptHead() bool { return a.Role == RoleDeptHead }

// Department is an organizational unit with a recorded head.
// The head reference may be stale on either side: HeadID is authoritative,
// HeadEmail is matched case-insensitively as a fallback.
type Department struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HeadID    string `json:"head_id"`
	HeadEmail string `json:"head_email"`
}

// NewActor contains information needed to create a new Actor.
type NewActor struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Role       Role   `json:"role" validate:"required,oneof=admin depthead marketing staff"`
	Department string `json:"department"`
	Password   string `json:"password" validate:"required"`
}

func (na *NewActor) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Department = core.CleanString(na.Department)
	return validate.Struct(na)
}

// NewDepartment contains information needed to create a new Department.
type NewDepartment struct {
	Name      string `json:"name" validate:"required"`
	HeadID    string `json:"head_id"`
	HeadEmail string `json:"head_email" validate:"omitempty,email"`
}

func (nd *NewDepartment) Validate(validate *validator.Validate) error {
	nd.Name = core.CleanString(nd.Name)
	nd.HeadEmail = core.CleanString(nd.HeadEmail, true /* lower */)
	return validate.Struct(nd)
}

type Filter struct {
	Role     Role  `query:"role"`
	IsActive *bool `query:"is_active"`
}

func (f *Filter) IsEmpty() bool {
	return f.Role == "" && f.IsActive == nil
}
