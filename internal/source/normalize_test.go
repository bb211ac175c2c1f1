package source

import "testing"

func TestNormalizeHandleStripsAtAndFoldsCase(t *testing.T) {
	cases := map[string]string{
		"@Foo":         "foo",
		"BAR":          "bar",
		" @Baz":        "baz",
		"mixedCase123": "mixedcase123",
	}
	for input, want := range cases {
		if got := NormalizeHandle(input); got != want {
			t.Errorf("NormalizeHandle(%q) = %q, want %q", input, got, want)
		}
	}
}
