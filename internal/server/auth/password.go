package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a one-way bcrypt digest of the plaintext password
// with a per-call random salt embedded in the digest.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether the plaintext matches the digest.
// A malformed digest returns false, never an error to the caller.
func CheckPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
