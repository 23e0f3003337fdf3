package model

import "time"

// Field represents a land parcel as stored in the `fields` table.  Every
// field belongs to exactly one farmer.  Coordinates holds a JSON array of
// {lat, lon} points describing the parcel boundary; it is stored verbatim
// and only validated on write.
type Field struct {
    ID                    uint64    `json:"id"`
    Name                  string    `json:"name"` // unique across all fields
    AreaHectares          float64   `json:"area_hectares"`
    CropRotation          string    `json:"crop_rotation,omitempty"`
    CultivationTechnology string    `json:"cultivation_technology,omitempty"`
    Coordinates           string    `json:"coordinates,omitempty"`
    FarmerID              uint64    `json:"farmer_id"`
    CreatedAt             time.Time `json:"created_at"`
    UpdatedAt             time.Time `json:"updated_at"`
}
