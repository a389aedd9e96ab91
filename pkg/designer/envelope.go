package designer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

var (
	// ErrUnknownCommand is returned when an envelope names no known command.
	ErrUnknownCommand = errors.New("designer: unknown command")
	// ErrMalformedCommand is returned when an envelope is missing the data its
	// command needs or cannot be decoded.
	ErrMalformedCommand = errors.New("designer: malformed command")
)

// envelope is the JSON shape of a command, e.g.
//
//	{"type":"MOVE_FIELD","activeId":"a","overId":"b"}
type envelope struct {
	Type     string               `json:"type"`
	Schema   *schema.FormDocument `json:"schema,omitempty"`
	Mode     Mode                 `json:"mode,omitempty"`
	FieldID  *string              `json:"fieldId,omitempty"`
	Field    *schema.Field        `json:"field,omitempty"`
	Patch    json.RawMessage      `json:"patch,omitempty"`
	ActiveID string               `json:"activeId,omitempty"`
	OverID   string               `json:"overId,omitempty"`
}

// DecodeCommand parses one command envelope.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if errors.Is(err, schema.ErrUnknownFieldType) || errors.Is(err, schema.ErrPropsMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	return env.command()
}

// DecodeCommands accepts either a single envelope or a JSON array of them.
func DecodeCommands(data []byte) ([]Command, error) {
	trimmed := firstNonSpace(data)
	if trimmed != '[' {
		cmd, err := DecodeCommand(data)
		if err != nil {
			return nil, err
		}
		return []Command{cmd}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	cmds := make([]Command, 0, len(raws))
	for idx, raw := range raws {
		cmd, err := DecodeCommand(raw)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", idx, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// EncodeCommand renders cmd as an envelope understood by DecodeCommand.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrMalformedCommand)
	}
	env := envelope{Type: cmd.Name()}
	switch c := cmd.(type) {
	case SetSchema:
		doc := c.Schema
		env.Schema = &doc
	case SetMode:
		env.Mode = c.Mode
	case SelectField:
		id := c.FieldID
		env.FieldID = &id
	case AddField:
		field := c.Field
		env.Field = &field
	case UpdateField:
		id := c.FieldID
		env.FieldID = &id
		patch, err := json.Marshal(c.Patch)
		if err != nil {
			return nil, fmt.Errorf("designer: encode patch: %w", err)
		}
		env.Patch = patch
	case DeleteField:
		id := c.FieldID
		env.FieldID = &id
	case MoveField:
		env.ActiveID = c.ActiveID
		env.OverID = c.OverID
	case UpdateForm:
		patch, err := json.Marshal(c.Patch)
		if err != nil {
			return nil, fmt.Errorf("designer: encode patch: %w", err)
		}
		env.Patch = patch
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return json.Marshal(env)
}

func (env envelope) command() (Command, error) {
	switch env.Type {
	case CommandSetSchema:
		if env.Schema == nil {
			return nil, fmt.Errorf("%w: %s requires schema", ErrMalformedCommand, env.Type)
		}
		if err := loader.Check(*env.Schema); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		return SetSchema{Schema: *env.Schema}, nil

	case CommandSetMode:
		if !env.Mode.Valid() {
			return nil, fmt.Errorf("%w: %s requires mode design or preview", ErrMalformedCommand, env.Type)
		}
		return SetMode{Mode: env.Mode}, nil

	case CommandSelectField:
		// A missing or null fieldId clears the selection.
		if env.FieldID == nil {
			return SelectField{}, nil
		}
		return SelectField{FieldID: *env.FieldID}, nil

	case CommandAddField:
		if env.Field == nil {
			return nil, fmt.Errorf("%w: %s requires field", ErrMalformedCommand, env.Type)
		}
		return AddField{Field: *env.Field}, nil

	case CommandUpdateField:
		if env.FieldID == nil {
			return nil, fmt.Errorf("%w: %s requires fieldId", ErrMalformedCommand, env.Type)
		}
		var patch FieldPatch
		if err := decodePatch(env.Patch, &patch); err != nil {
			return nil, err
		}
		return UpdateField{FieldID: *env.FieldID, Patch: patch}, nil

	case CommandDeleteField:
		if env.FieldID == nil {
			return nil, fmt.Errorf("%w: %s requires fieldId", ErrMalformedCommand, env.Type)
		}
		return DeleteField{FieldID: *env.FieldID}, nil

	case CommandMoveField:
		if env.ActiveID == "" || env.OverID == "" {
			return nil, fmt.Errorf("%w: %s requires activeId and overId", ErrMalformedCommand, env.Type)
		}
		return MoveField{ActiveID: env.ActiveID, OverID: env.OverID}, nil

	case CommandUpdateForm:
		var patch FormPatch
		if err := decodePatch(env.Patch, &patch); err != nil {
			return nil, err
		}
		return UpdateForm{Patch: patch}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedCommand)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}

func decodePatch(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: patch is required", ErrMalformedCommand)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: patch: %v", ErrMalformedCommand, err)
	}
	return nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b
		}
	}
	return 0
}
