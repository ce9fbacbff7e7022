package types

// Event kinds raised by the engine after a committed change. The GUI
// subscribes to these to redraw; the engine never calls into rendering code.
const (
	EventValueChanged    = "value_changed"
	EventCardAdded       = "card_added"
	EventCardRemoved     = "card_removed"
	EventListItemAdded   = "list_item_added"
	EventListItemRemoved = "list_item_removed"
	EventHeightChanged   = "height_changed"
	EventTypeChanged     = "type_changed"
)

// Event describes one state change. Fields other than Kind are set when
// they apply to the event.
type Event struct {
	Kind          string
	CardID        string
	FieldID       string
	TypeID        string
	ArrangementID string
}

// EventSink receives events. Implementations must not call back into the
// engine from the handler; events fire after the owning transaction commits.
type EventSink func(Event)
