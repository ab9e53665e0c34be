package crawler

import "testing"

// TestScopeAllows tests the fixed in-scope rules.
func TestScopeAllows(t *testing.T) {
	t.Parallel()

	scope, err := NewScope("https://site.example.com/docs/intro")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "same host content page",
			url:  "https://site.example.com/docs/intro",
			want: true,
		},
		{
			name: "deep path accepted",
			url:  "https://site.example.com/guide/advanced/tuning",
			want: true,
		},
		{
			name: "host case difference accepted",
			url:  "https://SITE.Example.COM/docs/intro",
			want: true,
		},
		{
			name: "http scheme on same host accepted",
			url:  "http://site.example.com/docs/intro",
			want: true,
		},
		{
			name: "foreign host rejected",
			url:  "https://other.example.com/page",
			want: false,
		},
		{
			name: "subdomain is a foreign host",
			url:  "https://api.site.example.com/docs",
			want: false,
		},
		{
			name: "bare root rejected",
			url:  "https://site.example.com/",
			want: false,
		},
		{
			name: "empty path rejected",
			url:  "https://site.example.com",
			want: false,
		},
		{
			name: "root fragment rejected",
			url:  "https://site.example.com/#top",
			want: false,
		},
		{
			name: "javascript pseudo link rejected",
			url:  "javascript:void(0)",
			want: false,
		},
		{
			name: "javascript case-insensitive",
			url:  "JavaScript:alert(1)",
			want: false,
		},
		{
			name: "mailto rejected",
			url:  "mailto:docs@example.com",
			want: false,
		},
		{
			name: "pdf asset rejected",
			url:  "https://site.example.com/a.pdf",
			want: false,
		},
		{
			name: "uppercase extension rejected",
			url:  "https://site.example.com/manual.PDF",
			want: false,
		},
		{
			name: "stylesheet rejected",
			url:  "https://site.example.com/static/main.css",
			want: false,
		},
		{
			name: "script rejected",
			url:  "https://site.example.com/static/app.js",
			want: false,
		},
		{
			name: "webp image rejected",
			url:  "https://site.example.com/img/logo.webp",
			want: false,
		},
		{
			name: "extension in query does not reject",
			url:  "https://site.example.com/download?file=a.pdf",
			want: true,
		},
		{
			name: "non-http scheme rejected",
			url:  "ftp://site.example.com/file.txt",
			want: false,
		},
		{
			name: "malformed rejected",
			url:  "https://site.example.com/%zz",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope.Allows(tt.url); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// TestNewScopeValidation tests base URL validation.
func TestNewScopeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
	}{
		{name: "relative base", base: "/docs/intro"},
		{name: "missing scheme", base: "site.example.com/docs"},
		{name: "non-http scheme", base: "ftp://site.example.com/"},
		{name: "malformed", base: "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewScope(tt.base); err == nil {
				t.Errorf("expected error for base %q", tt.base)
			}
		})
	}
}

// TestScopePatterns tests ignore and follow pattern filtering.
func TestScopePatterns(t *testing.T) {
	t.Parallel()

	t.Run("ignore patterns reject matching paths", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://site.example.com/docs",
			WithIgnorePatterns([]string{"/changelog/*", "*.html"}))
		if err != nil {
			t.Fatal(err)
		}

		if scope.Allows("https://site.example.com/changelog/v2") {
			t.Error("ignored subtree should be rejected")
		}
		if scope.Allows("https://site.example.com/guide/old.html") {
			t.Error("ignored extension should be rejected")
		}
		if !scope.Allows("https://site.example.com/guide/new") {
			t.Error("unmatched path should be accepted")
		}
	})

	t.Run("follow patterns restrict to matches", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://site.example.com/docs",
			WithFollowPatterns([]string{"/docs/*", "/api/*"}))
		if err != nil {
			t.Fatal(err)
		}

		if !scope.Allows("https://site.example.com/docs/intro") {
			t.Error("followed subtree should be accepted")
		}
		if !scope.Allows("https://site.example.com/api/v2/users") {
			t.Error("followed subtree should be accepted")
		}
		if scope.Allows("https://site.example.com/blog/post") {
			t.Error("path outside follow patterns should be rejected")
		}
	})

	t.Run("ignore wins over follow", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://site.example.com/docs",
			WithIgnorePatterns([]string{"/docs/internal/*"}),
			WithFollowPatterns([]string{"/docs/*"}))
		if err != nil {
			t.Fatal(err)
		}

		if scope.Allows("https://site.example.com/docs/internal/secrets") {
			t.Error("ignore pattern should win over follow pattern")
		}
		if !scope.Allows("https://site.example.com/docs/public") {
			t.Error("followed non-ignored path should be accepted")
		}
	})

	t.Run("patterns never widen the fixed rules", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://site.example.com/docs",
			WithFollowPatterns([]string{"*.pdf"}))
		if err != nil {
			t.Fatal(err)
		}

		if scope.Allows("https://site.example.com/manual.pdf") {
			t.Error("blocked extension must stay blocked regardless of patterns")
		}
	})
}

// TestMatchPattern tests glob pattern matching.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "subtree pattern matches child", pattern: "/admin/*", path: "/admin/users", want: true},
		{name: "subtree pattern matches deep child", pattern: "/admin/*", path: "/admin/users/42/edit", want: true},
		{name: "subtree pattern matches root itself", pattern: "/admin/*", path: "/admin", want: true},
		{name: "subtree pattern rejects sibling", pattern: "/admin/*", path: "/administrator", want: false},
		{name: "extension pattern matches anywhere", pattern: "*.html", path: "/guide/intro.html", want: true},
		{name: "extension pattern rejects other extension", pattern: "*.html", path: "/guide/intro.txt", want: false},
		{name: "question mark matches one character", pattern: "/api/v?", path: "/api/v2", want: true},
		{name: "question mark rejects two characters", pattern: "/api/v?", path: "/api/v10", want: false},
		{name: "exact match", pattern: "/about", path: "/about", want: true},
		{name: "empty path treated as root", pattern: "/*", path: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
