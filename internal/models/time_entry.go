package models

import "time"

// TimeEntry records minutes spent by a user on a task.
type TimeEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	Task      *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Minutes   int       `gorm:"not null" json:"minutes"`
	Note      string    `gorm:"size:500" json:"note"`
	SpentOn   time.Time `gorm:"index" json:"spent_on"`
	CreatedAt time.Time `json:"created_at"`
}

func (TimeEntry) TableName() string { return "time_entries" }
