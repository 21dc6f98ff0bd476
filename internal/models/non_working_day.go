package models

import "time"

// NonWorkingDay праздничный день из производственного календаря
type NonWorkingDay struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"type:varchar(10);uniqueIndex" json:"date"` // YYYY-MM-DD
	Year        int       `gorm:"index" json:"year"`
	Month       int       `gorm:"index" json:"month"`
	Day         int       `json:"day"`
	Title       string    `json:"title"`
	Transferred bool      `json:"transferred"` // перенесенный выходной
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (NonWorkingDay) TableName() string {
	return "non_working_days"
}
