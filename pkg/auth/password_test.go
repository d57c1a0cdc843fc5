package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{name: "valid strong password", password: "SecureP@ss123", shouldFail: false},
		{name: "too short", password: "Pass@1", shouldFail: true},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true},
		{name: "missing lowercase", password: "SECUREPASS@123", shouldFail: true},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true},
		{name: "missing special character", password: "SecurePass123", shouldFail: true},
		{name: "common password rejected", password: "Password123!", shouldFail: true},
		{name: "valid with symbols", password: "MyP@ssw0rd!", shouldFail: false},
		{name: "too long", password: strings.Repeat("Aa1@", 40), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.shouldFail && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestValidatePassword_ErrorIsGeneric(t *testing.T) {
	err := ValidatePassword("short")
	if err == nil {
		t.Fatal("expected error")
	}

	// The message never enumerates which requirement failed
	if err.Error() != "invalid password" {
		t.Errorf("error should be generic, got: %q", err.Error())
	}

	var verr *PasswordValidationError
	if !asPasswordError(err, &verr) {
		t.Fatal("expected *PasswordValidationError")
	}
	if len(verr.Errors) == 0 {
		t.Error("internal error list should name the failed requirements")
	}
}

func asPasswordError(err error, target **PasswordValidationError) bool {
	v, ok := err.(*PasswordValidationError)
	if ok {
		*target = v
	}
	return ok
}

func TestHashAndComparePassword(t *testing.T) {
	password := "SecureP@ss123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("hash should not be empty")
	}
	if hash == password {
		t.Error("hash should not equal plaintext password")
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Errorf("ComparePassword with correct password failed: %v", err)
	}

	if err := ComparePassword(hash, "WrongPassword456!"); err == nil {
		t.Error("ComparePassword with wrong password should fail")
	}
}

func TestHashPassword_EmptyInput(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
