package security

import (
	"fmt"
	"sync"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordPolicy defines the thresholds enforced at registration. Zero
// values disable the corresponding rule.
type PasswordPolicy struct {
	MinLength           int
	MinCharacterClasses int
	MinStrengthScore    int
}

var (
	// Registration accepts any password of minimal length out of the box;
	// stricter profiles are opt-in through configuration.
	defaultPasswordPolicy = PasswordPolicy{
		MinLength: 6,
	}

	activePasswordPolicy = defaultPasswordPolicy
	passwordPolicyMu     sync.RWMutex
)

// CurrentPasswordPolicy returns the currently active password policy.
func CurrentPasswordPolicy() PasswordPolicy {
	passwordPolicyMu.RLock()
	defer passwordPolicyMu.RUnlock()
	return activePasswordPolicy
}

// ConfigurePasswordPolicy sets the active password policy after validation.
func ConfigurePasswordPolicy(policy PasswordPolicy) error {
	if policy.MinLength < 1 {
		return fmt.Errorf("password policy: min length must be at least 1")
	}
	if policy.MinCharacterClasses < 0 || policy.MinCharacterClasses > 4 {
		return fmt.Errorf("password policy: character classes must be between 0 and 4")
	}
	if policy.MinStrengthScore < 0 || policy.MinStrengthScore > 4 {
		return fmt.Errorf("password policy: strength score must be between 0 and 4")
	}

	passwordPolicyMu.Lock()
	activePasswordPolicy = policy
	passwordPolicyMu.Unlock()
	return nil
}

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule validates a password according to a specific policy rule.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string) error

// Validate executes the underlying rule function.
func (f PasswordRuleFunc) Validate(password string) error {
	return f(password)
}

// PasswordValidator applies a sequence of password rules.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// Validate executes all rules and returns the first encountered violation.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPasswordValidator builds a validator from the active policy.
func DefaultPasswordValidator() *PasswordValidator {
	return NewPasswordValidatorWithContext()
}

// NewPasswordValidatorWithContext builds a validator from the active policy
// with user-supplied context (email, username) fed to zxcvbn so passwords
// derived from identity fields score poorly. Rules whose threshold is zero
// are skipped.
func NewPasswordValidatorWithContext(userInputs ...string) *PasswordValidator {
	policy := CurrentPasswordPolicy()

	rules := []PasswordRule{MinLengthRule(policy.MinLength)}
	if policy.MinCharacterClasses > 0 {
		rules = append(rules, RequireCharacterClassesRule(policy.MinCharacterClasses))
	}
	if policy.MinStrengthScore > 0 {
		rules = append(rules, RequirePasswordStrengthRule(policy.MinStrengthScore, userInputs...))
	}

	return NewPasswordValidator(rules...)
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if len([]rune(password)) < min {
			return &PasswordValidationError{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	})
}

// RequireCharacterClassesRule ensures the password contains characters from at least min distinct classes (upper, lower, digit, symbol).
func RequireCharacterClassesRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if min <= 0 {
			return nil
		}

		var (
			hasUpper  bool
			hasLower  bool
			hasDigit  bool
			hasSymbol bool
		)

		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsDigit(r):
				hasDigit = true
			case unicode.IsSymbol(r) || unicode.IsPunct(r):
				hasSymbol = true
			}
		}

		classes := 0
		if hasUpper {
			classes++
		}
		if hasLower {
			classes++
		}
		if hasDigit {
			classes++
		}
		if hasSymbol {
			classes++
		}

		if classes >= min {
			return nil
		}

		return &PasswordValidationError{
			Code:    "character_classes",
			Message: fmt.Sprintf("password must include at least %d character types", min),
		}
	})
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score to reject weak passwords.
func RequirePasswordStrengthRule(minScore int, userInputs ...string) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &PasswordValidationError{
			Code:    "weak_password",
			Message: "password is too weak; choose a more complex value",
		}
	})
}
