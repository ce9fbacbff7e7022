// Package types defines the entity model for the cardbox data engine:
// card types with single-parent inheritance, typed fields, cards with
// tagged field values, arrangements, the change variants consumed by the
// type editor, and the standard error values shared by every layer.
package types
