package model

import "time"

type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChecklistItem struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`

	ParentID *string `json:"parentId,omitempty"`
	Position int     `json:"position"`

	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`

	// Children is derived from ParentID by the tree builder and never persisted.
	Children []*ChecklistItem `json:"children,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParentKey returns the parent id, or "" for root items.
func (it ChecklistItem) ParentKey() string {
	if it.ParentID == nil {
		return ""
	}
	return *it.ParentID
}

// Clone returns a copy without children.
func (it ChecklistItem) Clone() ChecklistItem {
	out := it
	out.Children = nil
	if it.ParentID != nil {
		pid := *it.ParentID
		out.ParentID = &pid
	}
	return out
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Completed *bool   `json:"isCompleted,omitempty"`
	Position  *int    `json:"position,omitempty"`
	Text      *string `json:"text,omitempty"`

	// Detach moves the item to the root level.
	Detach bool `json:"detach,omitempty"`
}

func (p ItemPatch) Empty() bool {
	return p.Completed == nil && p.Position == nil && p.Text == nil && !p.Detach
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	ActorID  string    `json:"actorId"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}
