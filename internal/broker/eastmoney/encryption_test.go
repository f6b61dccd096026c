package eastmoney

import (
	"encoding/base64"
	"testing"
)

func TestEncryptPassword_OutputShape(t *testing.T) {
	out, err := EncryptPassword("my-password")
	if err != nil {
		t.Fatalf("EncryptPassword() error = %v", err)
	}
	if out == "" {
		t.Fatal("EncryptPassword() returned empty output")
	}

	raw, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}
	// 1024-bit vendor key: ciphertext is always 128 bytes.
	if len(raw) != 128 {
		t.Errorf("ciphertext length = %d, want 128", len(raw))
	}
}

func TestEncryptPassword_Randomized(t *testing.T) {
	// PKCS#1 v1.5 uses random padding: two encryptions of the same
	// input must differ.
	a, err := EncryptPassword("same-password")
	if err != nil {
		t.Fatalf("EncryptPassword() error = %v", err)
	}
	b, err := EncryptPassword("same-password")
	if err != nil {
		t.Fatalf("EncryptPassword() error = %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same password are identical")
	}
}

func TestEncryptPassword_DifferentInputs(t *testing.T) {
	testCases := []string{"", "short", "P@ssw0rd!#$%", "密码123"}
	for _, pw := range testCases {
		out, err := EncryptPassword(pw)
		if err != nil {
			t.Fatalf("EncryptPassword(%q) error = %v", pw, err)
		}
		if out == "" {
			t.Errorf("EncryptPassword(%q) returned empty output", pw)
		}
	}
}
