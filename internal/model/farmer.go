package model

import "time"

// Farmer represents a registered farmer as stored in the `farmers` table.
// A farmer owns zero or more fields; deleting a farmer removes the fields
// as well.  Fields is populated by the eager-loading queries and left nil
// by plain lookups.
//
// Fields:
//  ID          – primary key identifier.
//  PhoneNumber – unique phone number in international format.
//  FirstName   – given name.
//  LastName    – family name.
//  FarmName    – display name of the farm.
//  DateOfBirth – date of birth (date-only, stored as DATE).
//  Email       – unique email address.
//  Address     – postal address.
//  Photo       – optional photo URL.
//  Fields      – land parcels owned by this farmer (may be nil).
type Farmer struct {
    ID          uint64    `json:"id"`
    PhoneNumber string    `json:"phone_number"`
    FirstName   string    `json:"first_name"`
    LastName    string    `json:"last_name"`
    FarmName    string    `json:"farm_name"`
    DateOfBirth time.Time `json:"date_of_birth"`
    Email       string    `json:"email"`
    Address     string    `json:"address"`
    Photo       string    `json:"photo,omitempty"`
    Fields      []Field   `json:"fields,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// NumberOfFields returns how many fields were loaded for this farmer.
func (f *Farmer) NumberOfFields() int { return len(f.Fields) }

// TotalAreaHectares sums the area of all loaded fields.
func (f *Farmer) TotalAreaHectares() float64 {
    var total float64
    for _, fl := range f.Fields {
        total += fl.AreaHectares
    }
    return total
}
