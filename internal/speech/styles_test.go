package speech

import "testing"

func TestParseStyle(t *testing.T) {
	for _, name := range []string{"neutral", "breathy", "dramatic", "natural"} {
		if _, err := ParseStyle(name); err != nil {
			t.Fatalf("expected %q to parse: %v", name, err)
		}
	}
	if _, err := ParseStyle("operatic"); err == nil {
		t.Fatal("expected error for unknown style")
	}
}

func TestWrap(t *testing.T) {
	if got := StyleDramatic.Wrap("It is done"); got != "(slowly) It is done ... (long pause)" {
		t.Fatalf("unexpected dramatic wrap: %q", got)
	}
	if got := StyleBreathy.Wrap("Hello"); got != "(soft inhale) Hello ... (pause)" {
		t.Fatalf("unexpected breathy wrap: %q", got)
	}
	if got := StyleNeutral.Wrap("Hello"); got != "Hello" {
		t.Fatalf("neutral must not wrap, got %q", got)
	}
	if got := StyleNatural.Wrap("Hello"); got != "Hello" {
		t.Fatalf("natural must not wrap, got %q", got)
	}
}
