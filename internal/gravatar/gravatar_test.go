package gravatar

import (
	"crypto/md5"
	"fmt"
	"testing"
)

func TestURL(t *testing.T) {
	hash := md5.Sum([]byte("someone@example.com"))
	want := fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=200&r=pg&d=mm", hash)

	if got := URL("someone@example.com"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestURLNormalizesEmail(t *testing.T) {
	if URL("  Someone@Example.COM ") != URL("someone@example.com") {
		t.Fatalf("expected case and whitespace normalization")
	}
}
