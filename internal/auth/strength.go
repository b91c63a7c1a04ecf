package auth

// Strength grades a password for display while typing.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "none"
	}
}

// Hint is the message shown next to the password field.
func (s Strength) Hint() string {
	switch s {
	case StrengthWeak:
		return "Weak: Too short (min 6 characters)"
	case StrengthMedium:
		return "Medium: Acceptable"
	case StrengthStrong:
		return "Strong: Good password"
	default:
		return ""
	}
}

// PasswordStrength grades by length, then by character classes once the
// password reaches 8 characters.
func PasswordStrength(password string) Strength {
	n := len([]rune(password))
	switch {
	case n == 0:
		return StrengthNone
	case n < 6:
		return StrengthWeak
	case n < 8:
		return StrengthMedium
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if upper && lower && digit {
		return StrengthStrong
	}
	return StrengthMedium
}
