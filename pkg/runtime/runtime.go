// Package runtime embeds the browser script that drives the design canvas:
// selection, drag and drop reordering, deletion and undo over the document
// WebSocket.
package runtime

import (
	"embed"
	"io/fs"
)

// ScriptName is the file name of the canvas script inside AssetsFS.
const ScriptName = "designer.js"

//go:embed assets/*.js
var embedded embed.FS

// AssetsFS exposes the runtime scripts rooted at the assets directory.
//
// Typical mount:
//
//	mux.Handle("/runtime/",
//	  http.StripPrefix("/runtime/",
//	    http.FileServerFS(runtime.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		return embedded
	}
	return sub
}
