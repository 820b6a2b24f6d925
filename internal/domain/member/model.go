package member

import (
	"errors"
	"strings"

	"otterpoint/internal/domain/timestamp"
)

// Level constants
const (
	LevelPasser = "PASSER"
	LevelFormal = "FORMAL"
)

// Gender constants
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// ValidGenders contains all valid gender values.
var ValidGenders = []string{GenderMale, GenderFemale}

// Domain errors
var (
	ErrLastNameRequired    = errors.New("請輸入姓氏")
	ErrFirstNameRequired   = errors.New("請輸入名字")
	ErrPhoneRequired       = errors.New("請輸入手機號碼")
	ErrBirthDateRequired   = errors.New("請輸入生日")
	ErrInvalidGender       = errors.New("請選擇性別")
	ErrEmailRequired       = errors.New("請輸入電子信箱")
	ErrRegionRequired      = errors.New("請輸入居住地區")
	ErrPasswordRequired    = errors.New("請輸入密碼")
	ErrPasswordMismatch    = errors.New("兩次輸入的密碼不一致")
	ErrEmailNotVerified    = errors.New("請先完成電子信箱驗證")
	ErrOldPasswordRequired = errors.New("請輸入舊密碼")
)

// Member is the member record returned by /admin/member.
type Member struct {
	MemberID    string          `json:"memberId"`
	LastName    string          `json:"lastName"`
	FirstName   string          `json:"firstName"`
	Gender      string          `json:"gender"`
	PhoneNumber string          `json:"phoneNumber"`
	BirthDate   string          `json:"birthDate,omitempty"`
	Level       string          `json:"level"`
	Email       string          `json:"email,omitempty"`
	Region      string          `json:"region,omitempty"`
	Active      bool            `json:"active"`
	RemainPoint *int64          `json:"remainPoint,omitempty"`
	CreatedAt   timestamp.Stamp `json:"createdAt,omitempty"`
}

// FullName joins last and first name the way they are printed on cards.
func (m Member) FullName() string {
	return m.LastName + m.FirstName
}

// IsPasser reports whether the member has not completed verification yet.
func (m Member) IsPasser() bool {
	return m.Level == LevelPasser
}

// Points returns the remaining point aggregate, zero when absent.
func (m Member) Points() int64 {
	if m.RemainPoint == nil {
		return 0
	}
	return *m.RemainPoint
}

// Card is the member's own summary returned by /member/info.
type Card struct {
	MemberID    string `json:"memberId"`
	LastName    string `json:"lastName"`
	FirstName   string `json:"firstName"`
	Gender      string `json:"gender"`
	TotalPoints *int64 `json:"totalPoints,omitempty"`
	Level       string `json:"level"`
}

// FullName joins last and first name.
func (c Card) FullName() string {
	return c.LastName + c.FirstName
}

// Registration is the body of POST /member/register.
type Registration struct {
	LastName    string `json:"lastName"`
	FirstName   string `json:"firstName"`
	PhoneNumber string `json:"phoneNumber"`
	BirthDate   string `json:"birthDate"`
	Gender      string `json:"gender"`
}

// Validate checks presence of every registration field.
// PRE: Registration struct is populated from form input
// POST: Returns nil if valid, the first failing rule otherwise
func (r Registration) Validate() error {
	if err := validateIdentity(r.LastName, r.FirstName, r.PhoneNumber, r.Gender); err != nil {
		return err
	}
	if strings.TrimSpace(r.BirthDate) == "" {
		return ErrBirthDateRequired
	}
	return nil
}

// Profile is the self-service edit form exchanged with /member/me and /member/edit.
type Profile struct {
	LastName     string `json:"lastName"`
	FirstName    string `json:"firstName"`
	PhoneNumber  string `json:"phoneNumber"`
	BirthDate    string `json:"birthDate,omitempty"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	Region       string `json:"region"`
	ConfirmEmail bool   `json:"confirmEmail"`
}

// Validate checks the fields required to save a profile.
// PRE: Profile struct is populated from form input
// POST: Returns nil if valid, the first failing rule otherwise
func (p Profile) Validate() error {
	if err := validateIdentity(p.LastName, p.FirstName, p.PhoneNumber, p.Gender); err != nil {
		return err
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmailRequired
	}
	if strings.TrimSpace(p.Region) == "" {
		return ErrRegionRequired
	}
	return nil
}

// ValidateIdentity checks only the fields an admin must keep when editing a
// member on their behalf; email and region may still be unset for PASSER members.
func (p Profile) ValidateIdentity() error {
	return validateIdentity(p.LastName, p.FirstName, p.PhoneNumber, p.Gender)
}

// PasswordChange is the body of the self-service password change calls.
type PasswordChange struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"-"`
}

// Validate checks presence and confirmation equality.
// PRE: none
// POST: Returns nil if both passwords are present and the confirmation matches
func (c PasswordChange) Validate() error {
	if c.OldPassword == "" {
		return ErrOldPasswordRequired
	}
	if c.NewPassword == "" {
		return ErrPasswordRequired
	}
	if c.NewPassword != c.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

func validateIdentity(last, first, phone, gender string) error {
	if strings.TrimSpace(last) == "" {
		return ErrLastNameRequired
	}
	if strings.TrimSpace(first) == "" {
		return ErrFirstNameRequired
	}
	if strings.TrimSpace(phone) == "" {
		return ErrPhoneRequired
	}
	for _, g := range ValidGenders {
		if gender == g {
			return nil
		}
	}
	return ErrInvalidGender
}
