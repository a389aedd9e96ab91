// Package loader turns persisted form documents into schema.FormDocument
// values. Input is accepted as JSON or YAML from bytes, files, an fs.FS or an
// HTTP endpoint, and is rejected when it is empty, unparsable, names an
// unknown field type, or reuses a field id. The result is ready for
// designer.SetSchema.
package loader
