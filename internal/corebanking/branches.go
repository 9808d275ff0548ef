package corebanking

import (
	"strings"
	"unicode"
)

// BranchCatalog resolves the branch names shown to citizens to LINIX codes.
type BranchCatalog struct {
	codes       map[string]string
	defaultCode string
}

// NewBranchCatalog builds a catalog from NAME=CODE pairs. Names are matched
// case-insensitively with spaces and underscores treated alike.
func NewBranchCatalog(codes map[string]string, defaultCode string) *BranchCatalog {
	c := &BranchCatalog{codes: make(map[string]string, len(codes)), defaultCode: defaultCode}
	for name, code := range codes {
		c.codes[branchKey(name)] = strings.TrimSpace(code)
	}
	if c.defaultCode == "" {
		c.defaultCode = "102"
	}
	return c
}

// Code returns the numeric code for name. Numeric inputs pass through and
// unknown or empty names fall back to the default code.
func (c *BranchCatalog) Code(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.defaultCode
	}
	if isDigits(name) {
		return name
	}
	if code, ok := c.codes[branchKey(name)]; ok && code != "" {
		return code
	}
	return c.defaultCode
}

func (c *BranchCatalog) DefaultCode() string { return c.defaultCode }

func branchKey(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
