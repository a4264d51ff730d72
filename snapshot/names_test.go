package snapshot

import "testing"

func TestStripBranchSuffix(t *testing.T) {
	cases := map[string]string{
		"Lácteos SA (Sucursal Centro)": "Lácteos SA",
		"Lácteos SA":                   "Lácteos SA",
		"Acme (Norte) ":                "Acme",
		"(solo parentesis)":            "",
		"Panadería (a) (b)":            "Panadería (a)",
	}
	for in, want := range cases {
		if got := StripBranchSuffix(in); got != want {
			t.Errorf("StripBranchSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProviderNameKey(t *testing.T) {
	a := ProviderNameKey("Lácteos  SA (Sucursal Centro)")
	b := ProviderNameKey("lácteos sa")
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if ProviderNameKey("Acme") == ProviderNameKey("Acme Dos") {
		t.Fatal("distinct names collided")
	}
}
