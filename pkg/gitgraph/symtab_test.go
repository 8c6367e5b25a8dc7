package gitgraph

import "testing"

func TestSymbolTableInternIsStable(t *testing.T) {
	t1 := newSymbolTable()
	a := t1.intern("foo")
	b := t1.intern("bar")
	c := t1.intern("foo")

	if a != c {
		t.Errorf("expected re-interning \"foo\" to return the same id, got %d and %d", a, c)
	}
	if a == b {
		t.Errorf("expected distinct strings to get distinct ids")
	}
	if t1.resolve(a) != "foo" || t1.resolve(b) != "bar" {
		t.Errorf("resolve did not round-trip")
	}
}

func TestSymbolTableJoinPath(t *testing.T) {
	tbl := newSymbolTable()
	ids := []int32{tbl.intern("foo"), tbl.intern("bar"), tbl.intern("secret")}

	if got := tbl.joinPath(ids); got != "foo/bar/secret" {
		t.Errorf("joinPath = %q, want foo/bar/secret", got)
	}
	if got := tbl.joinPath(nil); got != "" {
		t.Errorf("joinPath(nil) = %q, want empty string", got)
	}
}
