package speech

import (
	"fmt"
	"strings"
)

// Role 说话角色预设，以规范字符串形式存储
type Role string

const (
	RoleGirl             Role = "Girl"
	RoleBoy              Role = "Boy"
	RoleYoungAdultFemale Role = "YoungAdultFemale"
	RoleYoungAdultMale   Role = "YoungAdultMale"
	RoleOlderAdultFemale Role = "OlderAdultFemale"
	RoleOlderAdultMale   Role = "OlderAdultMale"
	RoleSeniorFemale     Role = "SeniorFemale"
	RoleSeniorMale       Role = "SeniorMale"
)

// Roles 返回全部角色预设
func Roles() []Role {
	return []Role{
		RoleGirl,
		RoleBoy,
		RoleYoungAdultFemale,
		RoleYoungAdultMale,
		RoleOlderAdultFemale,
		RoleOlderAdultMale,
		RoleSeniorFemale,
		RoleSeniorMale,
	}
}

// ParseRole 解析角色名称，忽略大小写以及 "-"、"_" 分隔符
func ParseRole(raw string) (Role, error) {
	key := normalizeRoleKey(raw)
	if key == "" {
		return "", fmt.Errorf("role is empty")
	}

	for _, role := range Roles() {
		if normalizeRoleKey(string(role)) == key {
			return role, nil
		}
	}

	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid 判断是否为已知的角色预设
func (r Role) Valid() bool {
	for _, role := range Roles() {
		if role == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func normalizeRoleKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "")
	return strings.ReplaceAll(key, "_", "")
}
