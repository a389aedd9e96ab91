// Package schema defines the form document edited by the designer: the
// FormDocument aggregate, the Field tagged union keyed by FieldType, the
// default-field factory used by palettes, and the on-demand validation rules.
//
// Fields serialise (JSON and YAML) as flat objects where the variant keys sit
// next to the common ones, e.g.
//
//	{"id":"a1b2c3","type":"select","name":"select_a1b2c3","required":false,
//	 "disabled":false,"colSpan":12,"defaultValue":"","options":[...]}
//
// Documents are plain data; any serializer can walk them structurally.
package schema
