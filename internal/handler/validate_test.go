package handler

import "testing"

func fieldNames(errs []fieldError) map[string]bool {
	out := make(map[string]bool, len(errs))
	for _, e := range errs {
		out[e.Field] = true
	}
	return out
}

func TestValidateRegisterOK(t *testing.T) {
	req := registerReq{
		Email:       "jane@example.com",
		Password:    "abc12",
		PhoneNumber: "+49123456789",
		FirstName:   "Jane",
		LastName:    "Miller",
	}
	if errs := validateRegister(req); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestValidateRegisterCollectsAllFailures(t *testing.T) {
	req := registerReq{
		Email:       "not-an-email",
		Password:    "short",       // no digit
		PhoneNumber: "123",         // missing +
		FirstName:   "Jo",          // too short
		LastName:    "Miller2000!", // non-letters
	}
	got := fieldNames(validateRegister(req))
	for _, want := range []string{"email", "password", "phone_number", "first_name", "last_name"} {
		if !got[want] {
			t.Fatalf("missing error for %s; got %v", want, got)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"abc12", true},
		{"a1b2c3", true},
		{"abc1", false},       // too short
		{"abcdef", false},     // no digit
		{"123456", false},     // no letter
		{"abc 123", false},    // space
		{string(make([]byte, 51)), false}, // too long
	}
	for _, tc := range cases {
		errs := validatePassword(tc.pw)
		if tc.ok && len(errs) != 0 {
			t.Fatalf("password %q rejected: %+v", tc.pw, errs)
		}
		if !tc.ok && len(errs) == 0 {
			t.Fatalf("password %q accepted", tc.pw)
		}
	}
}

func TestValidateFarmer(t *testing.T) {
	good := farmerAddReq{
		PhoneNumber: "+98765",
		FirstName:   "Omar",
		LastName:    "Haddad",
		FarmName:    "Green Valley",
		DateOfBirth: "1980-04-02",
		Email:       "omar@example.com",
		Address:     "12 Long Country Road, Springfield",
	}
	if errs := validateFarmer(good); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	bad := good
	bad.DateOfBirth = "2999-01-01"
	if got := fieldNames(validateFarmer(bad)); !got["date_of_birth"] {
		t.Fatalf("future birth date accepted: %v", got)
	}

	bad = good
	bad.Address = "too short"
	if got := fieldNames(validateFarmer(bad)); !got["address"] {
		t.Fatalf("short address accepted: %v", got)
	}

	bad = good
	bad.FarmName = ""
	if got := fieldNames(validateFarmer(bad)); !got["farm_name"] {
		t.Fatalf("empty farm name accepted: %v", got)
	}
}

func TestFarmerPhoneLooserThanUserPhone(t *testing.T) {
	// A single-digit number is a valid farmer phone but not a valid
	// account phone.
	if !farmerPhoneRe.MatchString("+1") {
		t.Fatal("farmer phone +1 rejected")
	}
	if userPhoneRe.MatchString("+1") {
		t.Fatal("user phone +1 accepted")
	}
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"", true},
		{"[]", true},
		{`[{"lat":51.1,"lon":9.0},{"lat":51.2,"lon":9.1}]`, true},
		{"not json", false},
		{`{"lat":1,"lon":2}`, false}, // object, not an array
	}
	for _, tc := range cases {
		if got := validCoordinates(tc.in); got != tc.ok {
			t.Fatalf("validCoordinates(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestValidateFieldAdd(t *testing.T) {
	good := fieldAddReq{Name: "North Meadow", AreaHectares: 12.5, FarmerID: 3}
	if errs := validateFieldAdd(good); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	bad := fieldAddReq{Name: " ", AreaHectares: 0, Coordinates: "nope"}
	got := fieldNames(validateFieldAdd(bad))
	for _, want := range []string{"name", "area_hectares", "coordinates", "farmer_id"} {
		if !got[want] {
			t.Fatalf("missing error for %s; got %v", want, got)
		}
	}
}
