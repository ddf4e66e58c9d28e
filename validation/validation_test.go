package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/dagrun/errors"
)

type testConfig struct {
	Workers    int     `mapstructure:"workers" validate:"gte=1"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Mode       string  `mapstructure:"mode" validate:"oneof=strict lenient"`
}

func TestValidate_Valid(t *testing.T) {
	cfg := testConfig{Workers: 4, SampleRate: 0.5, Mode: "strict"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	cfg := testConfig{Workers: 0, SampleRate: 2.0, Mode: "chaotic"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	msg := err.Error()
	for _, field := range []string{"workers", "sample_rate", "mode"} {
		if !strings.Contains(msg, field) {
			t.Fatalf("expected %q in message, got %q", field, msg)
		}
	}
}

func TestValidate_FieldDetails(t *testing.T) {
	err := Validate(testConfig{Workers: 0, SampleRate: 0.5, Mode: "strict"})
	var vErr *errors.Error
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	vErr = err.(*errors.Error)
	fields, ok := vErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 1 {
		t.Fatalf("expected one field error, got %v", vErr.Details)
	}
	if fields[0].Field != "workers" {
		t.Fatalf("expected workers field, got %q", fields[0].Field)
	}
}
