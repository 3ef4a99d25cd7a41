package slug

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	cases := map[string]string{
		"Phantom Thread V2":        "phantom-thread-v2",
		"  Leading and trailing  ": "leading-and-trailing",
		"Hello,   World!":          "hello-world",
		"multi---hyphen -- tee":    "multi-hyphen-tee",
		"-- edge --":               "edge",
		"snake_case_name":          "snake_case_name",
		"Café Crème":               "caf-crme",
		"tab\tand\nnewline":        "tab-and-newline",
		"":                         "",
		"!!!":                      "",
	}
	for in, want := range cases {
		if got := Derive(in); got != want {
			t.Errorf("Derive(%q) = %q, want %q", in, got, want)
		}
	}
}

var derivedShape = regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)

func TestDeriveShape(t *testing.T) {
	inputs := []string{
		"Phantom Thread V2", "A  B", "x- -y", "  --  ", "Ünïcödé shirt", "100% cotton!!",
		"hoodie (black)", "tee / long-sleeve", "___", "a b",
	}
	for _, in := range inputs {
		got := Derive(in)
		if got == "" {
			continue
		}
		if !derivedShape.MatchString(got) {
			t.Errorf("Derive(%q) = %q has an invalid shape", in, got)
		}
		if strings.Contains(got, "--") || strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
			t.Errorf("Derive(%q) = %q has stray hyphens", in, got)
		}
		if Derive(got) != got {
			t.Errorf("Derive is not stable on its own output %q", got)
		}
	}
}

func TestLooksLikeLegacyID(t *testing.T) {
	cases := map[string]bool{
		"aB3dE5gH7jK9mN1pQ3sT":  true,
		"abcdefghijklmnopqrst":  true,
		"aB3dE5gH7jK9mN1pQ3s":   false,
		"aB3dE5gH7jK9mN1pQ3sTu": false,
		"phantom-thread-v2-xx":  false,
		"":                      false,
	}
	for in, want := range cases {
		if got := LooksLikeLegacyID(in); got != want {
			t.Errorf("LooksLikeLegacyID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestUnique(t *testing.T) {
	used := map[string]bool{"tee": true, "tee-2": true}
	got, err := Unique("tee", func(c string) (bool, error) { return used[c], nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tee-3" {
		t.Fatalf("expected tee-3, got %q", got)
	}

	got, err = Unique("hoodie", func(c string) (bool, error) { return used[c], nil })
	if err != nil || got != "hoodie" {
		t.Fatalf("expected hoodie, got %q err=%v", got, err)
	}

	boom := errors.New("store down")
	if _, err := Unique("tee", func(string) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected lookup error to propagate, got %v", err)
	}
}
