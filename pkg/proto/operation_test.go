package proto

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestParseRepositories(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: `["a","b"]`, want: []string{"a", "b"}},
		{in: ` ["only"] `, want: []string{"only"}},
		{in: ``, want: nil},
		{in: `not json`, want: nil},
		{in: `{"a":1}`, want: nil},
		{in: `[1,2]`, want: nil},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			is := is.New(t)
			is.Equal(ParseRepositories(c.in), c.want)
		})
	}
}

func TestResponseEncoding(t *testing.T) {
	is := is.New(t)

	bts, err := json.Marshal(Failure("Unknown action: bogus"))
	is.NoErr(err)
	is.Equal(string(bts), `{"success":false,"message":"Unknown action: bogus"}`)

	count := 0
	bts, err = json.Marshal(Response{Success: true, Message: "ok", Count: &count})
	is.NoErr(err)
	is.Equal(string(bts), `{"success":true,"message":"ok","count":0}`)

	bts, err = json.Marshal(DeletionResult{Name: "a", Success: true})
	is.NoErr(err)
	is.Equal(string(bts), `{"name":"a","success":true}`)
}
