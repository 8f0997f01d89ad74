// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateAdminKey(t *testing.T) {
	key1 := GenerateAdminKey("salt-a")
	key2 := GenerateAdminKey("salt-a")
	if key1 != key2 {
		t.Error("admin key should be deterministic for the same salt")
	}

	other := GenerateAdminKey("salt-b")
	if key1 == other {
		t.Error("different salts should produce different keys")
	}

	if strings.Contains(key1, "=") {
		t.Error("admin key should not contain padding")
	}
}

func TestValidateAdminKey(t *testing.T) {
	key := GenerateAdminKey("salt-a")

	if err := ValidateAdminKey(key, "salt-a"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateAdminKey(key, "salt-b"); err == nil {
		t.Error("key for different salt should be rejected")
	}
	if err := ValidateAdminKey("garbage", "salt-a"); err == nil {
		t.Error("garbage key should be rejected")
	}
}

func TestGenerateReviewerToken(t *testing.T) {
	token1, err := GenerateReviewerToken()
	if err != nil {
		t.Fatalf("GenerateReviewerToken() error: %v", err)
	}
	token2, err := GenerateReviewerToken()
	if err != nil {
		t.Fatalf("GenerateReviewerToken() error: %v", err)
	}

	if token1 == token2 {
		t.Error("tokens should be random")
	}
	if len(token1) < 30 {
		t.Errorf("token too short: %d chars", len(token1))
	}
}

func TestGeneratePolicyNumber(t *testing.T) {
	num := GeneratePolicyNumber("policy-1", "salt")

	if !strings.HasPrefix(num, "CYB-") {
		t.Errorf("policy number %q should have CYB- prefix", num)
	}
	if num != GeneratePolicyNumber("policy-1", "salt") {
		t.Error("policy number should be deterministic")
	}
	if num == GeneratePolicyNumber("policy-2", "salt") {
		t.Error("different policies should get different numbers")
	}
	if num == GeneratePolicyNumber("policy-1", "other-salt") {
		t.Error("different salts should get different numbers")
	}

	suffix := strings.TrimPrefix(num, "CYB-")
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffix %q should be uppercase", suffix)
	}
}
