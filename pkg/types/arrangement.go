package types

// Arrangement is a named spatial layout ("board") showing a subset of cards.
type Arrangement struct {
	ArrangementID string
	Name          string
}

// Arrangement card kinds stored in the arrangement_cards table.
const (
	ArrCardStandalone = "standalone"
	ArrCardList       = "list"
)

// ArrangementCard is the per-arrangement display state shared by standalone
// cards and list items: which card is shown and any per-field text height
// overrides, keyed by field ID.
type ArrangementCard struct {
	ArrCardID     string
	ArrangementID string
	CardID        string
	TextHeights   map[string]int // Height increase per Text field ID.
}

// ArrangementCardStandalone is a top-level card placed on an arrangement.
type ArrangementCardStandalone struct {
	ArrangementCard
	X             int
	Y             int
	Width         int
	ListMinimized map[string]bool        // Collapsed state per List field ID.
	Items         []*ArrangementCardItem // Reachable list items, recursively materialized.
}

// ArrangementCardItem is a list item's display row within an arrangement.
type ArrangementCardItem struct {
	ArrangementCard
	Minimized bool
}
