package transport

// TenantCreateRequest carries the payload for provisioning a tenant.
type TenantCreateRequest struct {
	Name   string         `json:"name"`
	Slug   string         `json:"slug"`
	Plan   string         `json:"plan"`
	Limits map[string]int `json:"limits"`
}

// StatusRequest covers every lifecycle transition endpoint.
type StatusRequest struct {
	Reason string `json:"reason"`
}

// MemberRequest attaches or detaches a user or organization.
type MemberRequest struct {
	MemberID string `json:"member_id"`
}

// SettingsRequest replaces an aggregate's limits and flags.
type SettingsRequest struct {
	Limits map[string]int  `json:"limits"`
	Flags  map[string]bool `json:"flags"`
}

type PermissionCreateRequest struct {
	Resource    string         `json:"resource"`
	Action      string         `json:"action"`
	Scope       string         `json:"scope"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Limits      map[string]int `json:"limits"`
}

type PermissionRoleRequest struct {
	RoleID string `json:"role_id"`
}

type RoleCreateRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Limits      map[string]int `json:"limits"`
}

type RoleGrantRequest struct {
	Code string `json:"code"`
}

type AuthCreateRequest struct {
	UserID string          `json:"user_id"`
	Limits map[string]int  `json:"limits"`
	Flags  map[string]bool `json:"flags"`
}

type SessionStartRequest struct {
	SessionID  string            `json:"session_id"`
	TTLSeconds int               `json:"ttl_seconds"`
	Metadata   map[string]string `json:"metadata"`
}

type SessionExtendRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

type SessionRevokeRequest struct {
	SessionID string `json:"session_id"`
}
