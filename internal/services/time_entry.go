package services

import (
	"time"

	"github.com/taskloom/taskloom/backend/internal/models"
	"gorm.io/gorm"
)

type TimeEntryService struct {
	db *gorm.DB
}

func NewTimeEntryService(db *gorm.DB) *TimeEntryService {
	return &TimeEntryService{db: db}
}

type CreateTimeEntryRequest struct {
	Minutes int        `json:"minutes" binding:"required,min=1"`
	Note    string     `json:"note"`
	SpentOn *time.Time `json:"spent_on"`
}

// Create logs time against a task. SpentOn defaults to today.
func (s *TimeEntryService) Create(userID, taskID uint, req *CreateTimeEntryRequest) (*models.TimeEntry, error) {
	var count int64
	if err := s.db.Model(&models.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrTaskNotFound
	}

	spentOn := time.Now()
	if req.SpentOn != nil {
		spentOn = *req.SpentOn
	}

	entry := models.TimeEntry{
		TaskID:  taskID,
		UserID:  userID,
		Minutes: req.Minutes,
		Note:    req.Note,
		SpentOn: spentOn,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

type TimeEntrySummary struct {
	Entries      []models.TimeEntry `json:"entries"`
	TotalMinutes int64              `json:"total_minutes"`
}

// List returns a task's time entries with the running total.
func (s *TimeEntryService) List(taskID uint) (*TimeEntrySummary, error) {
	var entries []models.TimeEntry
	err := s.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("spent_on DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range entries {
		total += int64(e.Minutes)
	}
	return &TimeEntrySummary{Entries: entries, TotalMinutes: total}, nil
}

// Delete removes the user's own time entry.
func (s *TimeEntryService) Delete(userID, entryID uint) error {
	res := s.db.Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.TimeEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTimeEntryNotFound
	}
	return nil
}
