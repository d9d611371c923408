package rand

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// RememberTokenBytes is the number of random bytes in a remember token.
const RememberTokenBytes = 32

// Bytes returns n random bytes.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// String returns a url-safe base64 string built from n random bytes.
func String(nBytes int) (string, error) {
	b, err := Bytes(nBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// RememberToken generates a session token, also used as a password pepper.
func RememberToken() (string, error) {
	return String(RememberTokenBytes)
}

// TaskID returns a new id for a task created by a task store.
func TaskID() string {
	return "t" + uuid.NewString()
}

// TempID returns a new id for a task that has not been confirmed by a task
// store yet.
func TempID() string {
	return "tmp-" + uuid.NewString()
}
