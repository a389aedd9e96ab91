package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle so hosts can start from it
// when supplying their own templates through WithTemplatesFS.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
