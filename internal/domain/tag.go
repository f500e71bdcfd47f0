package domain

// TagReference is a tag name and the commit it resolves to.
type TagReference struct {
	Name   string
	Commit string
}
