package shell

import (
	"errors"
	"reflect"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, g := range []GroupSpec{
		{Name: "wallet", Help: "Wallet management commands"},
		{Name: "pool", Help: "Pool management commands"},
	} {
		if err := r.AddGroup(g); err != nil {
			t.Fatalf("AddGroup(%s) error = %v", g.Name, err)
		}
	}
	r.MustRegister(
		CommandSpec{Name: "about", Help: "Show about information", Run: noop},
		CommandSpec{Name: "exit", Help: "Exit Indy CLI", Run: noop},
		*openSpec(),
		CommandSpec{Group: "wallet", Name: "list", Help: "List wallets", Run: noop},
		CommandSpec{Group: "wallet", Name: "close", Help: "Close wallet", Requires: NeedWallet, Run: noop},
		CommandSpec{Group: "pool", Name: "list", Help: "List pools", Run: noop},
	)
	return r
}

func TestRegistry_Lookup(t *testing.T) {
	r := testRegistry(t)

	spec, err := r.Lookup("wallet", "open")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if spec.Path() != "wallet open" {
		t.Errorf("Path() = %q", spec.Path())
	}

	_, err = r.Lookup("wallet", "opn")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Lookup(opn) error = %v, want UnknownCommand", err)
	}
	if e, _ := As(err); !reflect.DeepEqual(e.Suggestions, []string{"open"}) {
		t.Errorf("Suggestions = %v, want [open]", e.Suggestions)
	}

	if _, err := r.Lookup("walet", "open"); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("Lookup(walet) error = %v, want UnknownGroup", err)
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := testRegistry(t)

	if err := r.Register(*openSpec()); !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("duplicate Register() error = %v, want DuplicateCommand", err)
	}
	if err := r.Register(CommandSpec{Group: "ledger", Name: "nym", Run: noop}); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("Register() in unknown group error = %v, want UnknownGroup", err)
	}
	if err := r.Register(CommandSpec{Group: "wallet", Name: ReservedHelp, Run: noop}); err == nil {
		t.Error("Register() of reserved help should fail")
	}
	if err := r.Register(CommandSpec{Name: "wallet", Run: noop}); err == nil {
		t.Error("Register() of a top-level command named like a group should fail")
	}
	if err := r.AddGroup(GroupSpec{Name: "about"}); err == nil {
		t.Error("AddGroup() colliding with a top-level command should fail")
	}
	if err := r.Register(CommandSpec{Group: "pool", Name: "connect"}); err == nil {
		t.Error("Register() without handler should fail")
	}

	twoMains := CommandSpec{Group: "pool", Name: "create", Run: noop, Params: []ParamSpec{Main("a", ""), Main("b", "")}}
	if err := r.Register(twoMains); err == nil {
		t.Error("Register() with two main params should fail")
	}
	dup := CommandSpec{Group: "pool", Name: "create", Run: noop, Params: []ParamSpec{Optional("a", ""), Optional("a", "")}}
	if err := r.Register(dup); err == nil {
		t.Error("Register() with duplicate params should fail")
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := testRegistry(t)
	defer func() {
		if recover() == nil {
			t.Error("MustRegister() did not panic on duplicate")
		}
	}()
	r.MustRegister(CommandSpec{Name: "about", Run: noop})
}

func TestRegistry_Ordering(t *testing.T) {
	r := testRegistry(t)

	var got []string
	for _, c := range r.All() {
		got = append(got, c.Path())
	}
	want := []string{"about", "exit", "pool list", "wallet close", "wallet list", "wallet open"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}

	if names := r.TopLevelNames(); !reflect.DeepEqual(names, []string{"about", "exit", "pool", "wallet"}) {
		t.Errorf("TopLevelNames() = %v", names)
	}
	if _, err := r.Commands("nope"); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("Commands(nope) error = %v", err)
	}
}
