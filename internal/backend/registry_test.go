package backend

import (
	"context"
	"net/url"
	"testing"
)

func stubFactory(scheme string) Factory {
	return Factory{
		Scheme:      scheme,
		Description: "stub",
		Open: func(ctx context.Context, u *url.URL, cfg Config) (Backend, error) {
			return nil, nil
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	ClearFactories()
	defer ClearFactories()

	RegisterFactory(stubFactory("stub"))

	f, ok := GetFactory("stub")
	if !ok {
		t.Fatal("GetFactory() did not find registered factory")
	}
	if f.Scheme != "stub" {
		t.Errorf("Scheme = %q, want stub", f.Scheme)
	}
	if !IsRegistered("stub") {
		t.Error("IsRegistered() = false, want true")
	}
	if IsRegistered("other") {
		t.Error("IsRegistered(other) = true, want false")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	ClearFactories()
	defer ClearFactories()

	RegisterFactory(stubFactory("dup"))

	defer func() {
		if recover() == nil {
			t.Error("duplicate RegisterFactory did not panic")
		}
	}()
	RegisterFactory(stubFactory("dup"))
}

func TestOpenUnknownScheme(t *testing.T) {
	ClearFactories()
	defer ClearFactories()

	_, err := Open(context.Background(), "bogus://x", nil)
	if err == nil {
		t.Fatal("Open() with unknown scheme did not error")
	}
}

func TestOpenRunsValidate(t *testing.T) {
	ClearFactories()
	defer ClearFactories()

	f := stubFactory("v")
	called := false
	f.Validate = func(u *url.URL, cfg Config) error {
		called = true
		return nil
	}
	RegisterFactory(f)

	if _, err := Open(context.Background(), "v://x", nil); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !called {
		t.Error("Validate was not called")
	}
}

func TestSchemesSorted(t *testing.T) {
	ClearFactories()
	defer ClearFactories()

	RegisterFactory(stubFactory("zeta"))
	RegisterFactory(stubFactory("alpha"))

	got := Schemes()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("Schemes() = %v, want [alpha zeta]", got)
	}
}

func TestSubURL(t *testing.T) {
	tests := []struct {
		root, name, want string
		wantErr          bool
	}{
		{"file:///data/arrays", "temps", "file:///data/arrays/temps", false},
		{"mem://scratch", "a1", "mem://scratch/a1", false},
		{"s3://bucket/prefix", "grid", "s3://bucket/prefix/grid", false},
		{"sqlite:///data/arrays.db", "grid", "sqlite:///data/arrays.db?namespace=grid", false},
		{"file:///data", "../up", "", true},
		{"file:///data", "a/b", "", true},
		{"file:///data", "", "", true},
	}
	for _, tt := range tests {
		got, err := SubURL(tt.root, tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SubURL(%q, %q) did not error", tt.root, tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("SubURL(%q, %q) error = %v", tt.root, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SubURL(%q, %q) = %q, want %q", tt.root, tt.name, got, tt.want)
		}
	}
}
