package httpapi

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "hunter3") {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Fatal("malformed stored hash must fail closed")
	}
}
