package security

import (
	"errors"
	"testing"
)

func assertViolation(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected violation %q, got nil", code)
	}
	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %T", err)
	}
	if violation.Code != code {
		t.Fatalf("expected code %q, got %q", code, violation.Code)
	}
}

func TestMinLengthRule(t *testing.T) {
	rule := MinLengthRule(10)

	assertViolation(t, rule.Validate("short"), "min_length")

	if err := rule.Validate("long enough value"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestRequireCharacterClassesRule(t *testing.T) {
	rule := RequireCharacterClassesRule(3)

	assertViolation(t, rule.Validate("onlylowercase"), "character_classes")
	assertViolation(t, rule.Validate("lower1234"), "character_classes")

	if err := rule.Validate("Lower1234"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
	if err := rule.Validate("lower1234!"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestRequirePasswordStrengthRule(t *testing.T) {
	rule := RequirePasswordStrengthRule(3)

	assertViolation(t, rule.Validate("password123"), "weak_password")

	if err := rule.Validate("vX9#mQ2$wLr8zTk"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestRequirePasswordStrengthRuleUsesContext(t *testing.T) {
	rule := RequirePasswordStrengthRule(3, "jane.doe@example.com", "janedoe")

	assertViolation(t, rule.Validate("janedoe2024"), "weak_password")
}

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	assertViolation(t, validator.Validate("short"), "min_length")

	// Out of the box only the length floor applies; a plain lowercase+digit
	// password is acceptable.
	if err := validator.Validate("secret1"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
	if err := validator.Validate("vX9#mQ2$wLr8zTk"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestConfigurePasswordPolicyStrictProfile(t *testing.T) {
	original := CurrentPasswordPolicy()
	t.Cleanup(func() {
		if err := ConfigurePasswordPolicy(original); err != nil {
			t.Fatalf("restore password policy: %v", err)
		}
	})

	strict := PasswordPolicy{
		MinLength:           10,
		MinCharacterClasses: 3,
		MinStrengthScore:    3,
	}
	if err := ConfigurePasswordPolicy(strict); err != nil {
		t.Fatalf("ConfigurePasswordPolicy: %v", err)
	}
	if CurrentPasswordPolicy() != strict {
		t.Fatal("active policy not updated")
	}

	validator := DefaultPasswordValidator()

	assertViolation(t, validator.Validate("secret1"), "min_length")
	assertViolation(t, validator.Validate("alllowercaseletters"), "character_classes")
	assertViolation(t, validator.Validate("Password123!"), "weak_password")

	if err := validator.Validate("vX9#mQ2$wLr8zTk"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestConfigurePasswordPolicyRejectsInvalid(t *testing.T) {
	if err := ConfigurePasswordPolicy(PasswordPolicy{MinLength: 0}); err == nil {
		t.Fatal("expected error for zero min length")
	}
	if err := ConfigurePasswordPolicy(PasswordPolicy{MinLength: 8, MinCharacterClasses: 5}); err == nil {
		t.Fatal("expected error for out-of-range character classes")
	}
	if err := ConfigurePasswordPolicy(PasswordPolicy{MinLength: 8, MinStrengthScore: 5}); err == nil {
		t.Fatal("expected error for out-of-range strength score")
	}
}

func TestValidatorReturnsFirstViolation(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(10),
		RequireCharacterClassesRule(3),
	)

	assertViolation(t, validator.Validate("ab"), "min_length")
}
