// Package sqlite implements the schema store for cardbox documents: card
// types, fields, cards, per-kind value tables, and arrangements, all in a
// single SQLite database file inside the document archive.
package sqlite

// Current schema version written to schema_info on document creation.
// Documents with a newer version than this are rejected at Attach.
const schemaVersion = 1

// Schema DDL in dependency order.
const (
	createSchemaInfo = `CREATE TABLE schema_info (
    version INTEGER NOT NULL
);`

	createCardTypes = `CREATE TABLE card_types (
    type_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    parent_id TEXT,
    context TEXT NOT NULL,
    color TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (parent_id) REFERENCES card_types(type_id)
);`

	createCardTypeFields = `CREATE TABLE card_type_fields (
    field_id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    show_label INTEGER NOT NULL DEFAULT 1,
    ref_type_id TEXT,
    list_type_id TEXT,
    FOREIGN KEY (owner_id) REFERENCES card_types(type_id)
);`

	createCards = `CREATE TABLE cards (
    card_id TEXT PRIMARY KEY,
    type_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (type_id) REFERENCES card_types(type_id)
);`

	createTextValues = `CREATE TABLE text_values (
    card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (card_id, field_id)
);`

	createCardRefValues = `CREATE TABLE card_ref_values (
    card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    target_id TEXT,
    PRIMARY KEY (card_id, field_id)
);`

	createCheckBoxValues = `CREATE TABLE checkbox_values (
    card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    checked INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (card_id, field_id)
);`

	createImageValues = `CREATE TABLE image_values (
    card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    asset TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (card_id, field_id)
);`

	createListItems = `CREATE TABLE list_items (
    owner_card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    item_card_id TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (owner_card_id, field_id, item_card_id)
);`

	createArrangements = `CREATE TABLE arrangements (
    arrangement_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createArrangementCards = `CREATE TABLE arrangement_cards (
    arr_card_id TEXT PRIMARY KEY,
    arrangement_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    x INTEGER NOT NULL DEFAULT 0,
    y INTEGER NOT NULL DEFAULT 0,
    width INTEGER NOT NULL DEFAULT 0,
    minimized INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (arrangement_id) REFERENCES arrangements(arrangement_id),
    FOREIGN KEY (card_id) REFERENCES cards(card_id)
);`

	createTextHeights = `CREATE TABLE text_heights (
    arr_card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    height_increase INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (arr_card_id, field_id)
);`

	createListMinimized = `CREATE TABLE list_minimized (
    arr_card_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    minimized INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (arr_card_id, field_id)
);`
)

// Index DDL for the queries the engine runs on every card load and every
// type-editor propagation.
const (
	idxCardTypesParent   = `CREATE INDEX idx_card_types_parent ON card_types(parent_id);`
	idxFieldsOwner       = `CREATE INDEX idx_fields_owner ON card_type_fields(owner_id, sort_order);`
	idxCardsType         = `CREATE INDEX idx_cards_type ON cards(type_id);`
	idxTextValuesField   = `CREATE INDEX idx_text_values_field ON text_values(field_id);`
	idxRefValuesField    = `CREATE INDEX idx_ref_values_field ON card_ref_values(field_id);`
	idxRefValuesTarget   = `CREATE INDEX idx_ref_values_target ON card_ref_values(target_id);`
	idxListItemsItem     = `CREATE INDEX idx_list_items_item ON list_items(item_card_id);`
	idxListItemsField    = `CREATE INDEX idx_list_items_field ON list_items(field_id);`
	idxArrCardsArr       = `CREATE INDEX idx_arr_cards_arr ON arrangement_cards(arrangement_id);`
	idxArrCardsCard      = `CREATE INDEX idx_arr_cards_card ON arrangement_cards(card_id);`
	idxArrCardsArrCard   = `CREATE UNIQUE INDEX idx_arr_cards_arr_card ON arrangement_cards(arrangement_id, card_id);`
	idxListItemsOrder    = `CREATE INDEX idx_list_items_order ON list_items(owner_card_id, field_id, sort_order);`
	idxTextHeightsField  = `CREATE INDEX idx_text_heights_field ON text_heights(field_id);`
	idxListMinimizedFld  = `CREATE INDEX idx_list_minimized_field ON list_minimized(field_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createSchemaInfo,
	createCardTypes,
	createCardTypeFields,
	createCards,
	createTextValues,
	createCardRefValues,
	createCheckBoxValues,
	createImageValues,
	createListItems,
	createArrangements,
	createArrangementCards,
	createTextHeights,
	createListMinimized,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCardTypesParent,
	idxFieldsOwner,
	idxCardsType,
	idxTextValuesField,
	idxRefValuesField,
	idxRefValuesTarget,
	idxListItemsItem,
	idxListItemsField,
	idxArrCardsArr,
	idxArrCardsCard,
	idxArrCardsArrCard,
	idxListItemsOrder,
	idxTextHeightsField,
	idxListMinimizedFld,
}
