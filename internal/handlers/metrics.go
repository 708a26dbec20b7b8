package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/services"
)

var startTime = time.Now()

// Metrics returns Prometheus-compatible text format metrics.
func Metrics(c *gin.Context) {
	var b strings.Builder

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "taskloom_uptime_seconds", "Time since server start in seconds", float64(time.Since(startTime).Seconds()))
	writeGauge(&b, "taskloom_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "taskloom_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))
	writeGauge(&b, "taskloom_memory_sys_bytes", "Total memory obtained from OS in bytes", float64(m.Sys))
	writeGauge(&b, "taskloom_gc_runs_total", "Total number of GC runs", float64(m.NumGC))

	// -- Database metrics --
	db := models.GetDB()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			stats := sqlDB.Stats()
			writeGauge(&b, "taskloom_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
			writeGauge(&b, "taskloom_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
			writeGauge(&b, "taskloom_db_idle_connections", "Number of idle DB connections", float64(stats.Idle))
		}
	}

	// -- Queue metrics --
	taskQueue := services.GetTaskQueue()
	queueAsync := 0.0
	if taskQueue != nil && taskQueue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "taskloom_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)

	// -- Domain metrics --
	if db != nil {
		var projectCount, userCount int64
		db.Model(&models.Project{}).Count(&projectCount)
		db.Model(&models.User{}).Where("is_active = ?", true).Count(&userCount)

		writeGauge(&b, "taskloom_projects_total", "Total number of projects", float64(projectCount))
		writeGauge(&b, "taskloom_users_active", "Number of active users", float64(userCount))

		var todoTasks, inProgressTasks, doneTasks int64
		db.Model(&models.Task{}).Where("status = ?", models.TaskStatusTodo).Count(&todoTasks)
		db.Model(&models.Task{}).Where("status = ?", models.TaskStatusInProgress).Count(&inProgressTasks)
		db.Model(&models.Task{}).Where("status = ?", models.TaskStatusDone).Count(&doneTasks)

		writeGauge(&b, "taskloom_tasks_todo", "Number of tasks in todo", float64(todoTasks))
		writeGauge(&b, "taskloom_tasks_in_progress", "Number of tasks in progress", float64(inProgressTasks))
		writeGauge(&b, "taskloom_tasks_done", "Number of completed tasks", float64(doneTasks))

		var pendingInvitations int64
		db.Model(&models.ProjectMember{}).Where("status = ?", models.MemberStatusPending).Count(&pendingInvitations)
		writeGauge(&b, "taskloom_invitations_pending", "Number of pending project invitations", float64(pendingInvitations))

		var unreadNotifications int64
		db.Model(&models.Notification{}).Where("is_read = ?", false).Count(&unreadNotifications)
		writeGauge(&b, "taskloom_notifications_unread", "Number of unread notifications", float64(unreadNotifications))
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
