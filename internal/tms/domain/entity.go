package domain

// EntityType selects how the owner of a resource is resolved.
type EntityType string

const (
	EntityUser    EntityType = "USER"
	EntityTask    EntityType = "TASK"
	EntityComment EntityType = "COMMENT"
)

func (e EntityType) String() string { return string(e) }
