package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4) // minimal cost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals the plaintext")
	}
	if !VerifyPassword(hash, "hunter22") {
		t.Fatal("correct password rejected")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if VerifyPassword(hash, "hunter23") {
		t.Fatal("wrong password accepted")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "whatever") {
		t.Fatal("malformed hash accepted")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same-input", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same-input", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
}
