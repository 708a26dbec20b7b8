package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/pkg/logger"
	"gorm.io/gorm"
)

// CleanupService runs nightly housekeeping: it purges read notifications
// older than the retention window and deletes invite links that expired
// more than the retention window ago.
type CleanupService struct {
	db        *gorm.DB
	cron      *cron.Cron
	retention time.Duration
}

func NewCleanupService(db *gorm.DB) *CleanupService {
	return &CleanupService{
		db:        db,
		cron:      cron.New(),
		retention: 30 * 24 * time.Hour,
	}
}

// Start schedules the nightly run at 03:00 server time.
func (s *CleanupService) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		s.Run()
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info().Msg("cleanup scheduler started")
	return nil
}

func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Run executes one housekeeping pass.
func (s *CleanupService) Run() {
	cutoff := time.Now().Add(-s.retention)

	res := s.db.Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("cleanup: purge notifications failed")
	} else if res.RowsAffected > 0 {
		logger.Info().Int64("count", res.RowsAffected).Msg("cleanup: purged read notifications")
	}

	res = s.db.Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.InviteLink{})
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("cleanup: purge invite links failed")
	} else if res.RowsAffected > 0 {
		logger.Info().Int64("count", res.RowsAffected).Msg("cleanup: purged expired invite links")
	}
}
