package domain

import (
	"strings"
)

// PermissionCode is an immutable hierarchical authorization code of the form
// resource[:action[:scope]]. Values are normalized to lower case; invalid
// values cannot be constructed outside ParsePermissionCode and
// GeneratePermissionCode.
type PermissionCode struct {
	value string
}

const (
	permCodeMinLen   = 3
	permCodeMaxLen   = 50
	permCodeSep      = ":"
	permCodeMaxParts = 3
	defaultCodeToken = "resource"
	fillerCodeToken  = "access"
)

var reservedCodes = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"system":    {},
	"superuser": {},
	"all":       {},
	"any":       {},
	"none":      {},
	"null":      {},
}

// ParsePermissionCode validates and normalizes a raw permission code string.
func ParsePermissionCode(value string) (PermissionCode, error) {
	if err := validatePermissionCode(value); err != nil {
		return PermissionCode{}, err
	}
	return PermissionCode{value: strings.ToLower(value)}, nil
}

// MustPermissionCode parses value and panics on failure. Intended for
// registrations with compile-time known codes.
func MustPermissionCode(value string) PermissionCode {
	code, err := ParsePermissionCode(value)
	if err != nil {
		panic(err)
	}
	return code
}

func validatePermissionCode(value string) error {
	if value == "" {
		return NewError(ErrCodeInvalid, "permission code is empty")
	}
	if len(value) < permCodeMinLen || len(value) > permCodeMaxLen {
		return NewErrorf(ErrCodeInvalid, "permission code length must be %d-%d characters, got %d", permCodeMinLen, permCodeMaxLen, len(value))
	}
	for _, r := range value {
		if !isPermCodeRune(r) {
			return NewErrorf(ErrCodeInvalid, "permission code contains disallowed character %q", r)
		}
	}
	if strings.HasPrefix(value, permCodeSep) || strings.HasSuffix(value, permCodeSep) {
		return NewError(ErrCodeInvalid, "permission code cannot start or end with a separator")
	}
	if strings.Contains(value, permCodeSep+permCodeSep) {
		return NewError(ErrCodeInvalid, "permission code cannot contain consecutive separators")
	}
	if len(strings.Split(value, permCodeSep)) > permCodeMaxParts {
		return NewErrorf(ErrCodeInvalid, "permission code cannot have more than %d segments", permCodeMaxParts)
	}
	if isAllDigits(value) {
		return NewError(ErrCodeInvalid, "permission code cannot be purely numeric")
	}
	if _, reserved := reservedCodes[strings.ToLower(value)]; reserved {
		return NewErrorf(ErrCodeInvalid, "permission code %q is a reserved word", value)
	}
	return nil
}

func isPermCodeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == ':':
		return true
	}
	return false
}

func isAllDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(value) > 0
}

// String returns the normalized code value.
func (c PermissionCode) String() string {
	return c.value
}

// IsZero reports whether the code was never constructed.
func (c PermissionCode) IsZero() bool {
	return c.value == ""
}

// MarshalText encodes the code as its normalized string form.
func (c PermissionCode) MarshalText() ([]byte, error) {
	return []byte(c.value), nil
}

// UnmarshalText parses and validates the incoming value. The zero value
// round-trips so optional fields stay optional.
func (c *PermissionCode) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*c = PermissionCode{}
		return nil
	}
	code, err := ParsePermissionCode(string(data))
	if err != nil {
		return err
	}
	*c = code
	return nil
}

// Resource returns the first segment.
func (c PermissionCode) Resource() string {
	return c.segment(0)
}

// Action returns the second segment, or "" when absent.
func (c PermissionCode) Action() string {
	return c.segment(1)
}

// Scope returns the third segment, or "" when absent.
func (c PermissionCode) Scope() string {
	return c.segment(2)
}

func (c PermissionCode) segment(i int) string {
	parts := strings.Split(c.value, permCodeSep)
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// Equal compares two codes by normalized value.
func (c PermissionCode) Equal(other PermissionCode) bool {
	return c.value == other.value
}

// Covers reports whether a grant of c satisfies a requirement of other.
// A broader code covers every narrower one beneath it in the hierarchy:
// "orders" covers "orders:read" and "orders:read:team".
func (c PermissionCode) Covers(other PermissionCode) bool {
	if c.IsZero() || other.IsZero() {
		return false
	}
	if c.value == other.value {
		return true
	}
	return strings.HasPrefix(other.value, c.value+permCodeSep)
}

// GeneratePermissionCode sanitizes the inputs and composes a code that is
// guaranteed to validate. This is the only construction path safe for
// untrusted input; hand-built strings must go through ParsePermissionCode.
func GeneratePermissionCode(resource, action, scope string) PermissionCode {
	res := sanitizeCodeSegment(resource)
	act := sanitizeCodeSegment(action)
	sc := sanitizeCodeSegment(scope)

	if res == "" {
		res = defaultCodeToken
	}
	if sc != "" && act == "" {
		act = fillerCodeToken
	}

	composed := composeCode(res, act, sc)
	if validatePermissionCode(composed) != nil {
		// The sanitized resource was too short, numeric or reserved;
		// fall back to the default token and recompose.
		composed = composeCode(defaultCodeToken, act, sc)
	}
	return PermissionCode{value: composed}
}

func composeCode(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	code := strings.Join(kept, permCodeSep)
	if len(code) > permCodeMaxLen {
		code = code[:permCodeMaxLen]
		code = strings.Trim(code, permCodeSep+"_")
	}
	return code
}

func sanitizeCodeSegment(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '-', r == ' ', r == ':':
			b.WriteRune('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
