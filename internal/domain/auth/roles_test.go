package auth

import "testing"

func TestDeriveRole(t *testing.T) {
	cases := map[string]string{
		"manager":           RoleManager,
		"Manager":           RoleManager,
		"  HR ":             RoleHR,
		"admin":             RoleAdmin,
		"Software Engineer": RoleEmployee,
		"":                  RoleEmployee,
	}
	for position, want := range cases {
		if got := DeriveRole(position); got != want {
			t.Errorf("DeriveRole(%q) = %q, want %q", position, got, want)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleManager, RoleHR, RoleEmployee} {
		if !ValidRole(role) {
			t.Errorf("expected %q to be a valid role", role)
		}
	}
	if ValidRole("superuser") {
		t.Error("superuser should not be a valid role")
	}
}
