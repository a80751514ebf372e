package models

import "time"

// Patient carries the attributes the scheduling engine cares about; the
// full demographic record lives outside this service.
type Patient struct {
	ID             string       `bson:"id" json:"id"`
	Name           string       `bson:"name" json:"name"`
	Classification PatientClass `bson:"classification" json:"classification"`
	NoShowCount    int          `bson:"no_show_count" json:"noShowCount"`
	Suspended      bool         `bson:"suspended" json:"suspended"`
	CreatedAt      time.Time    `bson:"created_at" json:"createdAt"`
}
