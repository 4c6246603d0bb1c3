package types

// Task Status values
const (
	StatusPending    = "pending"
	StatusInProgress = "in progress"
	StatusCompleted  = "completed"
)

// Task Priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Chat request status values
const (
	ChatRequestPending  = "pending"
	ChatRequestAccepted = "accepted"
	ChatRequestRejected = "rejected"
)

// Notification types
const (
	NotificationTaskAssigned   = "task_assigned"
	NotificationTaskUpdated    = "task_updated"
	NotificationTaskCompleted  = "task_completed"
	NotificationTaskCreated    = "task_created"
	NotificationWorkspaceAdded = "workspace_added"
)

// Valid values for validation
var ValidTaskStatuses = []string{StatusPending, StatusInProgress, StatusCompleted}

var ValidTaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var ValidRoles = []string{RoleMember, RoleAdmin}

var ValidNotificationTypes = []string{
	NotificationTaskAssigned,
	NotificationTaskUpdated,
	NotificationTaskCompleted,
	NotificationTaskCreated,
	NotificationWorkspaceAdded,
}

func IsValidTaskStatus(status string) bool {
	return contains(ValidTaskStatuses, status)
}

func IsValidTaskPriority(priority string) bool {
	return contains(ValidTaskPriorities, priority)
}

func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

func IsValidNotificationType(t string) bool {
	return contains(ValidNotificationTypes, t)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
