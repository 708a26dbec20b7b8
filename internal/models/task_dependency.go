package models

import "time"

// Dependency edge types. A blocks edge means the dependent task cannot
// proceed until the depended-on task is done; related is informational.
const (
	DependencyTypeBlocks  = "blocks"
	DependencyTypeRelated = "related"
)

// TaskDependency is a directed edge between two tasks of the same project:
// the dependent task depends on the depended-on task. Edges are created and
// deleted, never updated in place.
type TaskDependency struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DependentTaskID uint      `gorm:"uniqueIndex:idx_dependent_depends_on;not null" json:"dependent_task_id"`
	DependsOnTaskID uint      `gorm:"uniqueIndex:idx_dependent_depends_on;not null" json:"depends_on_task_id"`
	DependencyType  string    `gorm:"size:20;default:blocks" json:"dependency_type"` // blocks, related
	CreatedAt       time.Time `json:"created_at"`
}

func (TaskDependency) TableName() string { return "task_dependencies" }
