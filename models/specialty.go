package models

// Specialty defines default durations and buffers per medical specialty.
type Specialty struct {
	ID                 string  `bson:"id" json:"id"`
	Name               string  `bson:"name" json:"name"`
	Active             bool    `bson:"active" json:"active"`
	DefaultDurationMin int     `bson:"default_duration_min" json:"defaultDurationMin"`
	BufferMin          int     `bson:"buffer_min" json:"bufferMin"` // turnover gap scaled by appointment type
	BaseFee            float64 `bson:"base_fee" json:"baseFee"`
}
