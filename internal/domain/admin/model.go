package admin

import (
	"errors"
	"strings"
)

// SeedID is the built-in super administrator. The portal never offers to edit it.
const SeedID = "AD00001"

// UnitIT is the information department; only its members manage admin accounts.
const UnitIT = "資訊部"

// Domain errors
var (
	ErrUsernameRequired = errors.New("請輸入帳號")
	ErrNameRequired     = errors.New("請輸入管理者名稱")
	ErrUnitRequired     = errors.New("請選擇單位")
	ErrProtected        = errors.New("總管理員無法被修改")
	ErrCredentials      = errors.New("請輸入帳號與密碼")
)

// Admin is a staff account returned by /admin/manage-admins.
type Admin struct {
	AdminID   string `json:"adminId,omitempty"`
	Username  string `json:"username"`
	AdminName string `json:"adminName"`
	Unit      string `json:"unit"`
	Active    bool   `json:"active"`
}

// Profile is the signed-in admin returned by /admin/me.
type Profile struct {
	AdminID   string `json:"adminId,omitempty"`
	AdminName string `json:"adminName"`
	Unit      string `json:"unit"`
}

// Protected reports whether the record is the seed admin.
func (a Admin) Protected() bool {
	return IsProtected(a.AdminID)
}

// IsProtected reports whether id names the seed admin.
func IsProtected(id string) bool {
	return id == SeedID
}

// Validate checks the fields an admin form must carry.
// PRE: Admin struct is populated from form input
// POST: Returns nil if valid, the first failing rule otherwise
func (a Admin) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrUsernameRequired
	}
	if strings.TrimSpace(a.AdminName) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(a.Unit) == "" {
		return ErrUnitRequired
	}
	return nil
}

// CanManageAdmins reports whether an admin of unit may open the admin
// management pages. The backend remains the authority.
func CanManageAdmins(unit string) bool {
	return unit == UnitIT
}

// UnitChoices filters the unit list for a form. The information department
// is only offered when the edited admin already belongs to it.
// PRE: units comes from /admin/manage-admins/units
// POST: Returns units in their original order
func UnitChoices(units []string, current string) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		if u == UnitIT && current != UnitIT {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Credentials is the admin login form.
type Credentials struct {
	Username string
	Password string
	Captcha  string
}

// Validate checks presence of username and password.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrCredentials
	}
	return nil
}
