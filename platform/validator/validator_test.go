package validator

import "testing"

type sample struct {
	Name string `validate:"trimmed_min=2"`
}

func TestTrimmedMin(t *testing.T) {
	v := New()
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Al", false},
		{"  A  ", true},
		{"    ", true},
	}
	for _, tt := range tests {
		err := v.Struct(sample{Name: tt.name})
		if (err != nil) != tt.wantErr {
			t.Errorf("Struct(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

type payload struct {
	Phone  string `json:"phone" validate:"required"`
	Course string `validate:"required"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	fields, ok := FieldErrors(New().Struct(payload{}))
	if !ok {
		t.Fatalf("expected field errors")
	}
	if fields["phone"] != "required" || fields["Course"] != "required" {
		t.Fatalf("fields = %v", fields)
	}
	if _, ok := FieldErrors(nil); ok {
		t.Fatalf("nil error reported field errors")
	}
}
