package rand

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestRememberToken(t *testing.T) {
	tok, err := RememberToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not url base64: %v", err)
	}
	if len(b) != RememberTokenBytes {
		t.Errorf("got %d bytes, want %d", len(b), RememberTokenBytes)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := TaskID()
		if !strings.HasPrefix(id, "t") {
			t.Fatalf("task id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if id := TempID(); !strings.HasPrefix(id, "tmp-") {
		t.Errorf("temp id %q missing prefix", id)
	}
}
