package constraint

import "testing"

func TestSetWith_NoExistingConstraint(t *testing.T) {
	s := NewSet()
	s, ok := s.With(nil, NotNullConstraint("param"))
	if !ok {
		t.Fatal("expected With to succeed with no prior constraint of this kind")
	}
	c, has := s.Get(KindNullness)
	if !has {
		t.Fatal("expected a nullness constraint")
	}
	if n, _ := c.Nullness(); n != NotNull {
		t.Errorf("got %v, want NotNull", n)
	}
}

func TestSetWith_ContradictionIsBottom(t *testing.T) {
	registry := NewRegistry()
	s, ok := NewSet().With(registry, NullConstraint())
	if !ok {
		t.Fatal("setup: expected initial NULL constraint to apply")
	}
	_, ok = s.With(registry, NotNullConstraint(""))
	if ok {
		t.Error("expected NULL meet NOT_NULL to be bottom")
	}
}

func TestSetWith_AgreementSucceeds(t *testing.T) {
	registry := NewRegistry()
	s, ok := NewSet().With(registry, NullConstraint())
	if !ok {
		t.Fatal("setup failed")
	}
	s, ok = s.With(registry, NullConstraint())
	if !ok {
		t.Error("expected NULL meet NULL to succeed")
	}
	if n, _ := s.Get(KindNullness); true {
		if v, _ := n.Nullness(); v != Null {
			t.Errorf("got %v, want Null", v)
		}
	}
}

func TestSetEqual(t *testing.T) {
	a, _ := NewSet().With(nil, NotNullConstraint(""))
	b, _ := NewSet().With(nil, NotNullConstraint("different provenance"))
	if a.Equal(b) {
		t.Error("expected sets with different provenance to compare unequal, since provenance is part of Constraint")
	}

	c, _ := NewSet().With(nil, NotNullConstraint(""))
	if !a.Equal(c) {
		t.Error("expected identical constraints to compare equal")
	}
}

func TestRegistry_CustomKindMeet(t *testing.T) {
	const kindFlag Kind = "flag"
	registry := NewRegistry()
	registry.Register(kindFlag, func(_, b Constraint) (Constraint, bool) { return b, true })

	s, ok := NewSet().With(registry, Constraint{Kind: kindFlag, Value: true})
	if !ok {
		t.Fatal("setup failed")
	}
	s, ok = s.With(registry, Constraint{Kind: kindFlag, Value: false})
	if !ok {
		t.Fatal("expected the custom meet to always succeed")
	}
	c, _ := s.Get(kindFlag)
	if c.Value != false {
		t.Errorf("got %v, want false (the latest-wins meet should take the newer value)", c.Value)
	}
}
