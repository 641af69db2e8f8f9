package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() without logger should return Default()")
	}
}

func TestWithLogger(t *testing.T) {
	l, err := New(Config{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := WithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestL_AddsCommandID(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer SetLevel("warn")

	ctx := WithCommandID(WithLogger(context.Background(), l), "01HZX")
	if got := CommandIDFromContext(ctx); got != "01HZX" {
		t.Errorf("CommandIDFromContext() = %q", got)
	}

	L(ctx).Info("executed")
	if !strings.Contains(buf.String(), "command_id=01HZX") {
		t.Errorf("output = %q", buf.String())
	}
}
