package cmd

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
)

func TestFailureWrapsCause(t *testing.T) {
	err := failure("Failed to open output file", fs.ErrPermission, "path", "/tmp/x")
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("errors.Is(%v, ErrPermission) = false", err)
	}
	if got := err.Error(); got != "Failed to open output file: permission denied" {
		t.Errorf("Error() = %q", got)
	}
}

func TestLogFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "command failure",
			err:  failure("Light sensor failed", errors.New("i2c nack"), "bus", "1"),
			want: []string{`msg="Light sensor failed"`, `error="i2c nack"`, "bus=1"},
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: []string{`msg="Command failed"`, "error=boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			logFailure(slog.New(slog.NewTextHandler(&out, nil)), tt.err)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("log %q missing %s", out.String(), w)
				}
			}
		})
	}
}

func TestRunCleansUpBeforeReturning(t *testing.T) {
	var order []string
	logs := logFlags{level: "error"}
	run := logs.run("test", func(*slog.Logger) error {
		defer func() { order = append(order, "cleanup") }()
		order = append(order, "body")
		return nil
	})
	run(nil, nil)
	if strings.Join(order, ",") != "body,cleanup" {
		t.Errorf("order = %v", order)
	}
}
