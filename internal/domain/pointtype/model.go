package pointtype

import (
	"errors"
	"strconv"
	"strings"
)

// Category constants
const (
	CategoryAdd     = "ADD"
	CategoryConsume = "CONSUME"
)

// ValidCategories contains all valid category values.
var ValidCategories = []string{CategoryAdd, CategoryConsume}

// SeedID is the built-in point type that cannot be edited.
const SeedID = "TP00001"

// Domain errors
var (
	ErrNameRequired    = errors.New("請輸入類型名稱")
	ErrInvalidCategory = errors.New("請選擇派發或消耗")
	ErrInvalidDefault  = errors.New("預設點數必須為正整數")
	ErrProtected       = errors.New("此點數類型無法被修改")
)

// PointType is a template for granting or deducting points.
type PointType struct {
	TypeID       string `json:"typeId,omitempty"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	DefaultValue int64  `json:"defaultValue"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
}

// Protected reports whether the record is the seed type.
func (p PointType) Protected() bool {
	return IsProtected(p.TypeID)
}

// IsProtected reports whether id names the seed type.
func IsProtected(id string) bool {
	return id == SeedID
}

// IsCategory reports whether c is ADD or CONSUME.
func IsCategory(c string) bool {
	return c == CategoryAdd || c == CategoryConsume
}

// Validate checks the fields a point type form must carry.
// PRE: PointType struct is populated from form input
// POST: Returns nil if valid, the first failing rule otherwise
func (p PointType) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !IsCategory(p.Category) {
		return ErrInvalidCategory
	}
	if p.DefaultValue <= 0 {
		return ErrInvalidDefault
	}
	return nil
}

// ParseDefault parses the default point value typed into the form.
// PRE: none
// POST: Returns ErrInvalidDefault for empty, non-integer or non-positive input
func ParseDefault(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidDefault
	}
	return n, nil
}

// Filter narrows GET /admin/point-types.
type Filter struct {
	Active   *bool
	Category string
}
