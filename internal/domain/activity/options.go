package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	RunID  string
	Type   *Type
	Limit  int
	Offset int
}
