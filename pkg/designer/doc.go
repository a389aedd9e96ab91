// Package designer holds the schema store: the DesignerState record, the
// closed set of commands that transition it, the pure Reduce function, and a
// Store that serialises dispatch for hosts with several producers (HTTP
// handlers, WebSocket connections, a terminal session).
//
// Commands are total. Referencing a field that does not exist is a no-op, and
// documents may pass through semantically invalid states while being edited;
// call schema.Validate (or Store.Validate) when a verdict is needed.
package designer
