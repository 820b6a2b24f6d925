package dashboard

import (
	"encoding/json"
	"testing"
)

func TestTilesDistinguishUnknownFromZero(t *testing.T) {
	var s Summary
	if err := json.Unmarshal([]byte(`{"totalMembers": 0, "issuedPoints": 120}`), &s); err != nil {
		t.Fatal(err)
	}
	tiles := s.Tiles()
	byLabel := map[string]string{}
	for _, tile := range tiles {
		byLabel[tile.Label] = tile.Value
	}
	if byLabel["會員總數"] != "0" {
		t.Errorf("zero counter: got %q, want 0", byLabel["會員總數"])
	}
	if byLabel["派發點數"] != "120" {
		t.Errorf("issued: got %q, want 120", byLabel["派發點數"])
	}
	if byLabel["新進會員"] != "-" {
		t.Errorf("missing counter: got %q, want -", byLabel["新進會員"])
	}
}
