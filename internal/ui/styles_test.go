package ui

import "testing"

func TestRender_PlainWhenColorDisabled(t *testing.T) {
	DisableColor()

	renderers := map[string]func(string) string{
		"accent": RenderAccent,
		"pass":   RenderPass,
		"warn":   RenderWarn,
		"fail":   RenderFail,
		"muted":  RenderMuted,
		"bold":   RenderBold,
	}
	for name, render := range renderers {
		if got := render("ok"); got != "ok" {
			t.Errorf("%s: got %q, want plain text", name, got)
		}
	}
}

func TestShouldUseColor_Env(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR should win over CLICOLOR_FORCE")
	}

	t.Setenv("NO_COLOR", "")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE should enable color")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"inspection form", 8, "inspect…"},
		{"ab", 1, "…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestWidth_Default(t *testing.T) {
	if w := Width(); w <= 0 {
		t.Errorf("Width() = %d", w)
	}
}
