package security

import (
	"strings"
	"testing"
)

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !strings.HasPrefix(hash, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	first, err := HashPassword("same-password-123!")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same-password-123!")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for repeated input")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	cases := []string{
		"not-a-hash",
		"argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"argon2id$v=19$m=65536,t=3$c2FsdA$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := VerifyPassword("anything", encoded); err == nil {
			t.Errorf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestVerifyPasswordEmptyInputs(t *testing.T) {
	ok, err := VerifyPassword("", "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("empty password must not verify")
	}
}

func TestConfigureArgon2RejectsInvalid(t *testing.T) {
	original := CurrentArgon2Config()
	defer func() {
		if err := ConfigureArgon2(original); err != nil {
			t.Fatalf("restore config: %v", err)
		}
	}()

	bad := Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	if err := ConfigureArgon2(bad); err == nil {
		t.Fatal("expected error for undersized memory")
	}

	good := Argon2Config{Memory: 16 * 1024, Iterations: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32}
	if err := ConfigureArgon2(good); err != nil {
		t.Fatalf("expected valid config to apply: %v", err)
	}
	if CurrentArgon2Config() != good {
		t.Fatal("active config was not updated")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	first := HashToken("refresh-token-value")
	second := HashToken("refresh-token-value")
	if first != second {
		t.Fatal("expected identical hashes for identical input")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
	if first == HashToken("other-token") {
		t.Fatal("expected different hashes for different input")
	}
}
