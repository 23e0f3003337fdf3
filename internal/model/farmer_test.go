package model

import "testing"

func TestFarmerDerivedValues(t *testing.T) {
	f := Farmer{Fields: []Field{
		{Name: "North", AreaHectares: 10.5},
		{Name: "South", AreaHectares: 4.25},
		{Name: "Creek", AreaHectares: 0.25},
	}}
	if got := f.NumberOfFields(); got != 3 {
		t.Fatalf("NumberOfFields = %d, want 3", got)
	}
	if got := f.TotalAreaHectares(); got != 15.0 {
		t.Fatalf("TotalAreaHectares = %v, want 15", got)
	}
}

func TestFarmerNoFields(t *testing.T) {
	var f Farmer
	if f.NumberOfFields() != 0 || f.TotalAreaHectares() != 0 {
		t.Fatal("empty farmer must derive zero values")
	}
}

func TestUserHasRole(t *testing.T) {
	u := User{Roles: []Role{{Name: RoleFarmer}}}
	if !u.HasRole(RoleFarmer) {
		t.Fatal("HasRole missed an assigned role")
	}
	if u.HasRole(RoleAdmin) || u.IsAdmin() {
		t.Fatal("HasRole reported an unassigned role")
	}
	u.Roles = append(u.Roles, Role{Name: RoleAdmin})
	if !u.IsAdmin() {
		t.Fatal("IsAdmin missed the admin role")
	}
}
