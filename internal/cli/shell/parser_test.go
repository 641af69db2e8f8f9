package shell

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		ignore bool
		want   []Token
	}{
		{
			name: "group command main",
			raw:  "wallet open alice",
			want: []Token{{Value: "wallet"}, {Value: "open"}, {Value: "alice"}},
		},
		{
			name: "named params",
			raw:  "  wallet create alice key=s3cr3t  storage_type=default ",
			want: []Token{
				{Value: "wallet"}, {Value: "create"}, {Value: "alice"},
				{Name: "key", Value: "s3cr3t", Named: true},
				{Name: "storage_type", Value: "default", Named: true},
			},
		},
		{
			name: "empty value",
			raw:  "ledger nym did=VsKV7grR1BUE29mG2Fm2kX role=",
			want: []Token{
				{Value: "ledger"}, {Value: "nym"},
				{Name: "did", Value: "VsKV7grR1BUE29mG2Fm2kX", Named: true},
				{Name: "role", Value: "", Named: true},
			},
		},
		{
			name: "quoted value keeps spaces",
			raw:  `prompt "my prompt" text="a b"`,
			want: []Token{
				{Value: "prompt"}, {Value: "my prompt"},
				{Name: "text", Value: "a b", Named: true},
			},
		},
		{
			name: "equals inside quotes is not a name",
			raw:  `show "a=b"`,
			want: []Token{{Value: "show"}, {Value: "a=b"}},
		},
		{
			name: "bare json with spaces",
			raw:  `ledger attrib did=Th7M raw={"endpoint": {"ha": "127.0.0.1:5555"}}`,
			want: []Token{
				{Value: "ledger"}, {Value: "attrib"},
				{Name: "did", Value: "Th7M", Named: true},
				{Name: "raw", Value: `{"endpoint": {"ha": "127.0.0.1:5555"}}`, Named: true},
			},
		},
		{
			name: "quote wrapped json",
			raw:  `ledger custom "{"reqId": 1, "note": "a } b"}"`,
			want: []Token{
				{Value: "ledger"}, {Value: "custom"},
				{Value: `{"reqId": 1, "note": "a } b"}`},
			},
		},
		{
			name: "json array",
			raw:  `ledger schema attr_names=[ "name", "age" ]`,
			want: []Token{
				{Value: "ledger"}, {Value: "schema"},
				{Name: "attr_names", Value: `[ "name", "age" ]`, Named: true},
			},
		},
		{
			name:   "leading dash sets ignore",
			raw:    "-wallet create test key=k",
			ignore: true,
			want: []Token{
				{Value: "wallet"}, {Value: "create"}, {Value: "test"},
				{Name: "key", Value: "k", Named: true},
			},
		},
		{
			name: "escaped quote inside json",
			raw:  `x v={"a":"\"}"}`,
			want: []Token{{Value: "x"}, {Name: "v", Value: `{"a":"\"}"}`, Named: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if line.IgnoreResult != tt.ignore {
				t.Errorf("IgnoreResult = %v, want %v", line.IgnoreResult, tt.ignore)
			}
			if !reflect.DeepEqual(line.Tokens, tt.want) {
				t.Errorf("Tokens = %#v\nwant %#v", line.Tokens, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"", ErrEmptyLine},
		{"   \t", ErrEmptyLine},
		{"-", ErrEmptyLine},
		{`prompt "unterminated`, ErrUnterminatedQuote},
		{`ledger custom {"reqId": 1`, ErrUnterminatedJSON},
		{`ledger custom "{"reqId": 1}`, ErrUnterminatedQuote},
		{`ledger custom "{"reqId": 1`, ErrUnterminatedQuote},
	}

	for _, tt := range tests {
		_, err := Parse(tt.raw)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.raw, err, tt.want)
		}
	}
}

func TestLine_Words(t *testing.T) {
	line, err := Parse("wallet open alice key=k extra")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"wallet", "open", "alice"}
	if got := line.Words(); !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
}
