package labels

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		group string
		code  string
		want  string
	}{
		{"add category", GroupCategory, "ADD", "派發"},
		{"consume category", GroupCategory, "CONSUME", "消耗"},
		{"passer level", GroupLevel, "PASSER", "非正式"},
		{"formal level", GroupLevel, "FORMAL", "正式"},
		{"unknown level", GroupLevel, "GOLD", Placeholder},
		{"empty code", GroupGender, "", Placeholder},
		{"unknown group", "nope", "ADD", Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup(tt.group, tt.code); got != tt.want {
				t.Errorf("Lookup(%q, %q) = %q, want %q", tt.group, tt.code, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	if got := Active(true); got != "是" {
		t.Errorf("Active(true) = %q, want 是", got)
	}
	if got := Active(false); got != "否" {
		t.Errorf("Active(false) = %q, want 否", got)
	}
}

func TestInt(t *testing.T) {
	if got := Int(nil); got != Placeholder {
		t.Errorf("Int(nil) = %q, want %q", got, Placeholder)
	}
	zero := int64(0)
	if got := Int(&zero); got != "0" {
		t.Errorf("Int(0) = %q, want 0", got)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte("category: [unterminated")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
