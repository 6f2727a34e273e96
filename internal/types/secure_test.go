package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretStringRedaction(t *testing.T) {
	secret := SecretString("vapid-private-key-material")

	if got := secret.String(); strings.Contains(got, "key-material") {
		t.Errorf("String() leaked the secret: %q", got)
	}
	if got := fmt.Sprintf("config: %v", secret); strings.Contains(got, "key-material") {
		t.Errorf("fmt verb leaked the secret: %q", got)
	}

	b, err := json.Marshal(struct {
		Key SecretString `json:"key"`
	}{Key: secret})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(b), "key-material") {
		t.Errorf("JSON leaked the secret: %s", b)
	}
}

func TestSecretStringUnmask(t *testing.T) {
	secret := SecretString("the-actual-value")
	if secret.Unmask() != "the-actual-value" {
		t.Errorf("Unmask() = %q", secret.Unmask())
	}
}
