package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleManager   Role = "MANAGER"
	RoleDeveloper Role = "DEVELOPER"
	RoleDesigner  Role = "DESIGNER"
	RoleTester    Role = "TESTER"
	RoleAnalyst   Role = "ANALYST"
	RoleViewer    Role = "VIEWER"
)

var knownRoles = map[Role]struct{}{
	RoleOwner:     {},
	RoleManager:   {},
	RoleDeveloper: {},
	RoleDesigner:  {},
	RoleTester:    {},
	RoleAnalyst:   {},
	RoleViewer:    {},
}

// ParseRole приводит токен к роли из словаря. ok=false для неизвестных токенов.
func ParseRole(token string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(token)))
	_, ok := knownRoles[r]
	return r, ok
}

// Roles хранится в БД строкой через запятую.
type Roles []Role

// Contains проверяет наличие роли в наборе.
func (rs Roles) Contains(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects сообщает, есть ли у наборов общая роль.
func (rs Roles) Intersects(other Roles) bool {
	for _, r := range rs {
		if other.Contains(r) {
			return true
		}
	}
	return false
}

// Strings возвращает роли в виде строк.
func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func (rs Roles) Value() (driver.Value, error) {
	return strings.Join(rs.Strings(), ","), nil
}

func (rs *Roles) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*rs = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported roles type %T", src)
	}

	var out Roles
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Role(part))
	}
	*rs = out
	return nil
}
