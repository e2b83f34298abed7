package event

import "time"

const (
	MenuItemsTopic       = "menu.items"
	EventMenuItemCreated = "menu.item.created"
	EventMenuItemUpdated = "menu.item.updated"
	EventMenuItemDeleted = "menu.item.deleted"
	EventMenuItemToggled = "menu.item.toggled"
)

// MenuItemEvent is emitted whenever a manager changes a booth menu.
type MenuItemEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	BoothID    int64     `json:"booth_id"`
	MenuItemID int64     `json:"menu_item_id"`
	Name       string    `json:"name,omitempty"`
	Available  bool      `json:"available"`
}
