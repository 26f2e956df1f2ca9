package utils

import (
	"testing"

	"github.com/matryer/is"
)

func TestSanitizeRepo(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"", ""},
		{"/", ""},
		{"foo", "foo"},
		{"/foo", "foo"},
		{" foo.git ", "foo"},
		{"../../foo", "foo"},
		{"owner/foo.git", "owner/foo"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			is := is.New(t)
			is.Equal(SanitizeRepo(c.in), c.out)
		})
	}
}

func TestValidateRepo(t *testing.T) {
	is := is.New(t)
	is.NoErr(ValidateRepo("my-repo_1.0"))
	is.NoErr(ValidateRepo("owner/repo"))
	is.True(ValidateRepo("") != nil)
	is.True(ValidateRepo("bad repo") != nil)
	is.True(ValidateRepo("semi;colon") != nil)
}

func TestSplitNames(t *testing.T) {
	is := is.New(t)
	is.Equal(SplitNames("a,b, c"), []string{"a", "b", "c"})
	is.Equal(SplitNames(",,a,,"), []string{"a"})
	is.Equal(SplitNames(""), []string{})
}

func TestMatchNames(t *testing.T) {
	is := is.New(t)
	got, err := MatchNames("old-*", []string{"old-api", "web", "old-cli"})
	is.NoErr(err)
	is.Equal(got, []string{"old-api", "old-cli"})

	_, err = MatchNames("[", nil)
	is.True(err != nil)
}

func TestAppendUnique(t *testing.T) {
	is := is.New(t)
	is.Equal(AppendUnique([]string{"a", "b"}, "b", "c", "a", "d"), []string{"a", "b", "c", "d"})
}
