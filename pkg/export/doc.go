// Package export serialises form documents for download (JSON or YAML) and
// derives an OpenAPI 3 request schema from them, which is also used to check
// submitted values.
package export
