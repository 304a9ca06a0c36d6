package toolexecutor

import (
	"fmt"
	"strings"
)

// SecurityLevel is an ordered privilege tier gating which callers may invoke a tool
type SecurityLevel string

const (
	LevelBasic      SecurityLevel = "basic"
	LevelEnhanced   SecurityLevel = "enhanced"
	LevelEnterprise SecurityLevel = "enterprise"
)

// RoleAdmin bypasses security level checks
const RoleAdmin = "admin"

// AllSecurityLevels returns the levels from least to most privileged
func AllSecurityLevels() []SecurityLevel {
	return []SecurityLevel{LevelBasic, LevelEnhanced, LevelEnterprise}
}

// Rank returns the position of the level in the total order.
// Unknown levels rank 0, below basic.
func (l SecurityLevel) Rank() int {
	switch l {
	case LevelBasic:
		return 1
	case LevelEnhanced:
		return 2
	case LevelEnterprise:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is one of the known levels
func (l SecurityLevel) Valid() bool {
	return l.Rank() > 0
}

// ParseSecurityLevel parses a level name case-insensitively
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	level := SecurityLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("invalid security level: %s", s)
	}
	return level, nil
}

// CanAccess reports whether a caller may use a tool registered at toolLevel.
// Admins are granted access regardless of level.
func CanAccess(toolLevel, callerLevel SecurityLevel, callerRole string) bool {
	if callerRole == RoleAdmin {
		return true
	}
	if !callerLevel.Valid() {
		return false
	}
	return callerLevel.Rank() >= toolLevel.Rank()
}
