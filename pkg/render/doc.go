// Package render defines the contract between the designer core and the
// collaborators that draw it: the Renderer interface, a name keyed Registry,
// per-request RenderOptions, and helpers that map validation feedback onto
// field names.
package render
