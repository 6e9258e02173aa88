package filter

import "testing"

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		expr string
		url  string
		want bool
	}{
		{"host match", `host == "example.com"`, "https://example.com/page", true},
		{"host mismatch", `host == "example.com"`, "https://other.test/page", false},
		{"host suffix", `host endsWith "example.com"`, "https://docs.example.com/", true},
		{"path contains", `path contains "/docs/"`, "https://a.test/docs/intro", true},
		{"path miss", `path contains "/docs/"`, "https://a.test/blog/intro", false},
		{"scheme", `scheme == "http"`, "http://a.test/", true},
		{"port", `port == "8080"`, "https://a.test:8080/", true},
		{"query", `query contains "utm_"`, "https://a.test/?utm_source=x", true},
		{"combined", `host == "a.test" && path startsWith "/x"`, "https://a.test/x/y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := pred(tt.url); got != tt.want {
				t.Errorf("%s on %s = %v, want %v", tt.expr, tt.url, got, tt.want)
			}
		})
	}
}

func TestCompileRejectsBadExpression(t *testing.T) {
	if _, err := Compile(`host ==`); err == nil {
		t.Error("want error for malformed expression")
	}
	// Non-boolean expressions are rejected at compile time.
	if _, err := Compile(`host`); err == nil {
		t.Error("want error for non-boolean expression")
	}
}

func TestPredicateUnparseableURL(t *testing.T) {
	pred, err := Compile(`host == "a.test"`)
	if err != nil {
		t.Fatal(err)
	}
	if pred("http://bad host/") {
		t.Error("unparseable URL must evaluate to false")
	}
}
