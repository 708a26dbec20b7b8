package services

import (
	"github.com/taskloom/taskloom/backend/internal/models"
	"gorm.io/gorm"
)

// DependencyService maintains the per-project task dependency graph.
// Edges point from a dependent task to the task it depends on; the graph
// must stay acyclic regardless of edge type.
type DependencyService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewDependencyService(db *gorm.DB, activity *ActivityService) *DependencyService {
	return &DependencyService{db: db, activity: activity}
}

type AddDependencyRequest struct {
	DependsOnTaskID uint   `json:"depends_on_task_id" binding:"required"`
	DependencyType  string `json:"dependency_type"`
}

// Add inserts a dependency edge after rejecting self-loops, duplicates,
// cross-project pairs and cycles. Validation and insert share one
// transaction.
func (s *DependencyService) Add(userID, dependentTaskID uint, req *AddDependencyRequest) (*models.TaskDependency, error) {
	depType := req.DependencyType
	if depType == "" {
		depType = models.DependencyTypeBlocks
	}
	if depType != models.DependencyTypeBlocks && depType != models.DependencyTypeRelated {
		return nil, ErrInvalidDependencyType
	}
	if dependentTaskID == req.DependsOnTaskID {
		return nil, ErrSelfDependency
	}

	var edge models.TaskDependency
	var projectID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var dependent, dependsOn models.Task
		if err := tx.First(&dependent, dependentTaskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrTaskNotFound
			}
			return err
		}
		if err := tx.First(&dependsOn, req.DependsOnTaskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrTaskNotFound
			}
			return err
		}
		if dependent.ProjectID != dependsOn.ProjectID {
			return ErrCrossProjectDependency
		}
		projectID = dependent.ProjectID

		var count int64
		tx.Model(&models.TaskDependency{}).
			Where("dependent_task_id = ? AND depends_on_task_id = ?", dependentTaskID, req.DependsOnTaskID).
			Count(&count)
		if count > 0 {
			return ErrDuplicateDependency
		}

		cyclic, err := s.wouldCycle(tx, dependentTaskID, req.DependsOnTaskID)
		if err != nil {
			return err
		}
		if cyclic {
			return ErrCyclicDependency
		}

		edge = models.TaskDependency{
			DependentTaskID: dependentTaskID,
			DependsOnTaskID: req.DependsOnTaskID,
			DependencyType:  depType,
		}
		return tx.Create(&edge).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(projectID, userID, "dependency_added", "task_dependency", edge.ID,
		map[string]interface{}{"dependent": dependentTaskID, "depends_on": req.DependsOnTaskID, "type": depType})
	return &edge, nil
}

// wouldCycle walks the depends-on edges reachable from start with an
// iterative DFS and reports whether target is reachable. Adding
// target -> start would then close a cycle. Edge type is deliberately
// ignored: related edges participate in cycle detection too.
func (s *DependencyService) wouldCycle(tx *gorm.DB, target, start uint) (bool, error) {
	visited := map[uint]struct{}{}
	stack := []uint{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == target {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		var next []uint
		err := tx.Model(&models.TaskDependency{}).
			Where("dependent_task_id = ?", current).
			Pluck("depends_on_task_id", &next).Error
		if err != nil {
			return false, err
		}
		stack = append(stack, next...)
	}
	return false, nil
}

// Remove deletes a dependency edge. Idempotent: removing a missing edge
// succeeds.
func (s *DependencyService) Remove(userID, dependentTaskID, dependsOnTaskID uint) error {
	var task models.Task
	if err := s.db.First(&task, dependentTaskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrTaskNotFound
		}
		return err
	}

	res := s.db.Where("dependent_task_id = ? AND depends_on_task_id = ?", dependentTaskID, dependsOnTaskID).
		Delete(&models.TaskDependency{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected > 0 {
		s.activity.Log(task.ProjectID, userID, "dependency_removed", "task_dependency", 0,
			map[string]interface{}{"dependent": dependentTaskID, "depends_on": dependsOnTaskID})
	}
	return nil
}

// IsTaskBlocked reports whether the task has at least one blocks edge to
// a task that is not done.
func (s *DependencyService) IsTaskBlocked(taskID uint) (bool, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, ErrTaskNotFound
		}
		return false, err
	}

	var count int64
	err := s.db.Model(&models.TaskDependency{}).
		Joins("JOIN tasks ON tasks.id = task_dependencies.depends_on_task_id").
		Where("task_dependencies.dependent_task_id = ?", taskID).
		Where("task_dependencies.dependency_type = ?", models.DependencyTypeBlocks).
		Where("tasks.status != ?", models.TaskStatusDone).
		Where("tasks.deleted_at IS NULL").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetBlockingTasks returns the not-done tasks that block the given task.
func (s *DependencyService) GetBlockingTasks(taskID uint) ([]models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	var blocking []models.Task
	err := s.db.Model(&models.Task{}).
		Joins("JOIN task_dependencies ON task_dependencies.depends_on_task_id = tasks.id").
		Where("task_dependencies.dependent_task_id = ?", taskID).
		Where("task_dependencies.dependency_type = ?", models.DependencyTypeBlocks).
		Where("tasks.status != ?", models.TaskStatusDone).
		Find(&blocking).Error
	return blocking, err
}

// ProjectDependencies returns every edge touching a task of the project,
// for graph visualization.
func (s *DependencyService) ProjectDependencies(projectID uint) ([]models.TaskDependency, error) {
	var taskIDs []uint
	err := s.db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Pluck("id", &taskIDs).Error
	if err != nil {
		return nil, err
	}
	if len(taskIDs) == 0 {
		return []models.TaskDependency{}, nil
	}

	var edges []models.TaskDependency
	err = s.db.Where("dependent_task_id IN ? OR depends_on_task_id IN ?", taskIDs, taskIDs).
		Find(&edges).Error
	return edges, err
}

// DependentsOf returns ids of tasks that have a blocks edge pointing at
// the given task. Used to notify when a blocking task completes.
func (s *DependencyService) DependentsOf(taskID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.TaskDependency{}).
		Where("depends_on_task_id = ? AND dependency_type = ?", taskID, models.DependencyTypeBlocks).
		Pluck("dependent_task_id", &ids).Error
	return ids, err
}
