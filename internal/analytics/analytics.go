// Package analytics aggregates task collections into summary statistics.
// Everything here is pure: no storage access and no mutation of the input.
package analytics

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// PriorityCounts counts tasks per priority.
type PriorityCounts struct {
	High   int `json:"High"`
	Medium int `json:"Medium"`
	Low    int `json:"Low"`
}

// ProjectStats summarizes every task of one project.
type ProjectStats struct {
	TotalTasks         int            `json:"totalTasks"`
	CompletedTasks     int            `json:"completedTasks"`
	InProgressTasks    int            `json:"inProgressTasks"`
	TodoTasks          int            `json:"todoTasks"`
	CompletionRate     float64        `json:"completionRate"`
	TotalTimeSpent     int            `json:"totalTimeSpent"`
	TotalEstimatedTime int            `json:"totalEstimatedTime"`
	TasksByPriority    PriorityCounts `json:"tasksByPriority"`
	OverdueTasks       int            `json:"overdueTasks"`
}

// UserStats summarizes the tasks assigned to one user.
type UserStats struct {
	TotalTasks            int     `json:"totalTasks"`
	CompletedTasks        int     `json:"completedTasks"`
	InProgressTasks       int     `json:"inProgressTasks"`
	CompletionRate        float64 `json:"completionRate"`
	TotalTimeSpent        int     `json:"totalTimeSpent"`
	TotalEstimatedTime    int     `json:"totalEstimatedTime"`
	AverageCompletionTime float64 `json:"averageCompletionTime"`
}

// CompletionRate returns completed/total as a percentage. 0/0 is 0.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// ComputeProjectStats aggregates tasks as of now.
func ComputeProjectStats(tasks []models.Task, now time.Time) ProjectStats {
	var stats ProjectStats
	stats.TotalTasks = len(tasks)

	for i := range tasks {
		t := &tasks[i]

		switch t.Status {
		case models.TaskStatusDone:
			stats.CompletedTasks++
		case models.TaskStatusInProgress:
			stats.InProgressTasks++
		case models.TaskStatusTodo:
			stats.TodoTasks++
		}

		switch t.Priority {
		case models.TaskPriorityHigh:
			stats.TasksByPriority.High++
		case models.TaskPriorityMedium:
			stats.TasksByPriority.Medium++
		case models.TaskPriorityLow:
			stats.TasksByPriority.Low++
		}

		stats.TotalTimeSpent += t.TimeSpent
		if t.EstimatedTime != nil {
			stats.TotalEstimatedTime += *t.EstimatedTime
		}
		if t.IsOverdue(now) {
			stats.OverdueTasks++
		}
	}

	stats.CompletionRate = CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	return stats
}

// ComputeUserStats aggregates the tasks assigned to a single user.
func ComputeUserStats(tasks []models.Task) UserStats {
	var stats UserStats
	stats.TotalTasks = len(tasks)

	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case models.TaskStatusDone:
			stats.CompletedTasks++
		case models.TaskStatusInProgress:
			stats.InProgressTasks++
		}
		stats.TotalTimeSpent += t.TimeSpent
		if t.EstimatedTime != nil {
			stats.TotalEstimatedTime += *t.EstimatedTime
		}
	}

	stats.CompletionRate = CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	if stats.CompletedTasks > 0 {
		stats.AverageCompletionTime = float64(stats.TotalTimeSpent) / float64(stats.CompletedTasks)
	}
	return stats
}
