package utils

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// SanitizeRepo returns a sanitized version of the given repository name.
func SanitizeRepo(repo string) string {
	// We need to use an absolute path for the path to be cleaned correctly.
	repo = strings.TrimSpace(repo)
	repo = strings.TrimPrefix(repo, "/")
	repo = "/" + repo

	// We're using path instead of filepath here because this is not OS dependent
	// looking at you Windows
	repo = path.Clean(repo)
	repo = strings.TrimSuffix(repo, ".git")
	return repo[1:]
}

// ValidateRepo returns an error if the given repository name is invalid.
func ValidateRepo(repo string) error {
	if repo == "" {
		return fmt.Errorf("repo cannot be empty")
	}

	for _, r := range repo {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' && r != '/' {
			return fmt.Errorf("repo can only contain letters, numbers, hyphens, underscores, periods, and slashes")
		}
	}

	return nil
}

// SplitNames splits a comma separated list of repository names. Blank
// entries are dropped and order is kept.
func SplitNames(s string) []string {
	names := make([]string, 0)
	for _, n := range strings.Split(s, ",") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}

	return names
}

// MatchNames returns the names matching the given glob pattern, in order.
func MatchNames(pattern string, names []string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	matched := make([]string, 0)
	for _, n := range names {
		if g.Match(n) {
			matched = append(matched, n)
		}
	}

	return matched, nil
}

// AppendUnique appends the names not already present in dst, keeping order.
func AppendUnique(dst []string, names ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, n := range dst {
		seen[n] = struct{}{}
	}

	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		dst = append(dst, n)
	}

	return dst
}
