package extract

import (
	"strings"
	"testing"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blocks and inline",
			in:   `<html><head><title>T</title></head><body><h1>Title</h1><p>Hello <b>bold</b>   world</p><div>next</div></body></html>`,
			want: "Title\nHello bold world\nnext",
		},
		{
			name: "drops scripts and styles",
			in:   `<body><script>var x = "hidden";</script><style>p{}</style><noscript>enable js</noscript><p>shown</p></body>`,
			want: "shown",
		},
		{
			name: "list and table",
			in:   `<ul><li>one</li><li>two</li></ul><table><tr><td>a</td><td>b</td></tr></table>`,
			want: "one\ntwo\na b",
		},
		{
			name: "script only page",
			in:   `<html><body><div id="app"></div><script src="app.js"></script></body></html>`,
			want: "",
		},
		{
			name: "comments ignored",
			in:   `<p>x<!-- note -->y</p>`,
			want: "xy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToText(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("HTMLToText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
