package procexec

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"ansi color", "\x1b[32mhello\x1b[0m", "hello"},
		{"control bytes", "hel\x01lo\x07", "hello"},
		{"collapse whitespace", "a   b\tc", "a b c"},
		{"all whitespace drops", "   \t  ", ""},
		{"trims ends", "  hello  ", "hello"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Sanitize(c.in)
			if got != c.want {
				t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
