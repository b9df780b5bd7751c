package secret

import (
	"errors"
	"strings"
	"testing"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestExpand(t *testing.T) {
	lookup := mapLookup(map[string]string{"SHOP": "demo.myshopify.com", "EMPTY": ""})

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "braced", in: "https://${SHOP}/api", want: "https://demo.myshopify.com/api"},
		{name: "bare", in: "$SHOP", want: "demo.myshopify.com"},
		{name: "bare unset is empty", in: "x$NOPE", want: "x"},
		{name: "set but empty", in: "${EMPTY}", want: ""},
		{name: "dollar escape", in: "$$${SHOP}", want: "$demo.myshopify.com"},
		{name: "missing braced", in: "${SHOP} ${TOKEN} ${API}", wantErr: ErrMissingEnv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.in, lookup)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpand_MissingNamesSorted(t *testing.T) {
	_, err := Expand("${ZED} ${ALPHA}", mapLookup(nil))
	if err == nil || !strings.HasSuffix(err.Error(), "ALPHA, ZED") {
		t.Fatalf("error = %v, want sorted names", err)
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("SFQUERY_TEST_X", "y")

	out, err := ExpandEnvStrict("$$${SFQUERY_TEST_X}")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "$y" {
		t.Fatalf("ExpandEnvStrict() = %q, want %q", out, "$y")
	}
}

func TestOverlay(t *testing.T) {
	t.Setenv("SFQUERY_TEST_BOTH", "from-env")
	t.Setenv("SFQUERY_TEST_ENV_ONLY", "env")

	lookup := Overlay(map[string]string{"SFQUERY_TEST_BOTH": "from-file"})

	if v, _ := lookup("SFQUERY_TEST_BOTH"); v != "from-file" {
		t.Errorf("overlay value = %q, want from-file", v)
	}
	if v, _ := lookup("SFQUERY_TEST_ENV_ONLY"); v != "env" {
		t.Errorf("env fallback = %q, want env", v)
	}
	if _, ok := lookup("SFQUERY_TEST_UNSET"); ok {
		t.Error("unset variable reported as set")
	}
}
