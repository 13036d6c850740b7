// Package meter implements the meters/resources demo: seeding the data set and
// listing the latest meter of every (resource, counter) pair page by page.
package meter

import "time"

type Resource struct {
	ID        string `gorm:"primaryKey;size:255"`
	UserID    string `gorm:"size:255"`
	ProjectID string `gorm:"size:255"`
	Meters    []Meter
}

func (Resource) TableName() string {
	return "resource"
}

// Meter is a single metering sample.
type Meter struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	CounterName   string `gorm:"size:255;index:idx_meter_rid_cname,priority:2"`
	ResourceID    string `gorm:"size:255;index:idx_meter_rid_cname,priority:1"`
	CounterType   string `gorm:"size:255"`
	CounterUnit   string `gorm:"size:255"`
	CounterVolume float64
	Timestamp     time.Time
}

func (Meter) TableName() string {
	return "meter"
}

// Row is one line of the meter listing: the latest sample of a counter joined
// with its resource.
type Row struct {
	CounterName string `json:"name" db:"counter_name"`
	CounterType string `json:"type" db:"counter_type"`
	CounterUnit string `json:"unit" db:"counter_unit"`
	ResourceID  string `json:"resource_id" db:"resource_id"`
	ProjectID   string `json:"project_id" db:"project_id"`
	UserID      string `json:"user_id" db:"user_id"`
}
