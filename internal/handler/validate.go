package handler

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// fieldError is one field-level validation failure, reported to the client
// in the 422 response body.
type fieldError struct {
	Field   string `json:"loc"`
	Message string `json:"msg"`
}

var (
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	userPhoneRe   = regexp.MustCompile(`^\+\d{5,15}$`)
	farmerPhoneRe = regexp.MustCompile(`^\+\d{1,15}$`)
)

// validateRegister checks a registration payload: well-formed email, a
// 5-50 char password containing at least one letter and one digit and no
// spaces, an international phone number, and alphabetic names of 3-50
// runes.  All failures are collected so the client can fix them in one go.
func validateRegister(req registerReq) []fieldError {
	var errs []fieldError
	if !emailRe.MatchString(req.Email) {
		errs = append(errs, fieldError{"email", "invalid email format"})
	}
	errs = append(errs, validatePassword(req.Password)...)
	if !userPhoneRe.MatchString(req.PhoneNumber) {
		errs = append(errs, fieldError{"phone_number", "phone number must start with '+' and contain 5 to 15 digits"})
	}
	if e := validateName(req.FirstName); e != "" {
		errs = append(errs, fieldError{"first_name", e})
	}
	if e := validateName(req.LastName); e != "" {
		errs = append(errs, fieldError{"last_name", e})
	}
	return errs
}

func validatePassword(pw string) []fieldError {
	var errs []fieldError
	if len(pw) < 5 || len(pw) > 50 {
		errs = append(errs, fieldError{"password", "password must be 5 to 50 characters"})
		return errs
	}
	var hasDigit, hasLetter bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		}
	}
	if !hasDigit {
		errs = append(errs, fieldError{"password", "password must contain at least one digit"})
	}
	if !hasLetter {
		errs = append(errs, fieldError{"password", "password must contain at least one letter"})
	}
	if strings.ContainsRune(pw, ' ') {
		errs = append(errs, fieldError{"password", "password must not contain spaces"})
	}
	return errs
}

func validateName(name string) string {
	runes := []rune(name)
	if len(runes) < 3 || len(runes) > 50 {
		return "must be 3 to 50 characters"
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return "must contain only letters"
		}
	}
	return ""
}

// validateFarmer checks a farmer payload.  Farmer phone numbers follow a
// looser rule than user accounts (1-15 digits), matching the registry's
// historical data.
func validateFarmer(req farmerAddReq) []fieldError {
	var errs []fieldError
	if !farmerPhoneRe.MatchString(req.PhoneNumber) {
		errs = append(errs, fieldError{"phone_number", "phone number must start with '+' and contain 1 to 15 digits"})
	}
	if l := len([]rune(req.FirstName)); l < 1 || l > 50 {
		errs = append(errs, fieldError{"first_name", "must be 1 to 50 characters"})
	}
	if l := len([]rune(req.LastName)); l < 1 || l > 50 {
		errs = append(errs, fieldError{"last_name", "must be 1 to 50 characters"})
	}
	if req.FarmName == "" {
		errs = append(errs, fieldError{"farm_name", "farm name is required"})
	}
	if !emailRe.MatchString(req.Email) {
		errs = append(errs, fieldError{"email", "invalid email format"})
	}
	if l := len([]rune(req.Address)); l < 10 || l > 200 {
		errs = append(errs, fieldError{"address", "must be 10 to 200 characters"})
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		errs = append(errs, fieldError{"date_of_birth", "must be a date in YYYY-MM-DD format"})
	} else if !dob.Before(time.Now()) {
		errs = append(errs, fieldError{"date_of_birth", "must be in the past"})
	}
	return errs
}

// coordPoint is one vertex of a field boundary.
type coordPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// validCoordinates reports whether s is a JSON array of {lat, lon} points.
// The string is stored verbatim when valid; an empty string means "no
// boundary recorded" and is accepted.
func validCoordinates(s string) bool {
	if s == "" {
		return true
	}
	var pts []coordPoint
	return json.Unmarshal([]byte(s), &pts) == nil
}
