package designer_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

func TestStore_DispatchAndSubscribe(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	store := designer.New(
		designer.WithLogger(zap.New(core)),
		designer.WithFieldFactory(schema.NewFactory(counterIDs("st"))),
	)

	var changes []designer.Change
	unsubscribe := store.Subscribe(func(change designer.Change) {
		changes = append(changes, change)
	})

	field, state, err := store.AddDefaultField(schema.FieldTypeSelect)
	if err != nil {
		t.Fatalf("add default field: %v", err)
	}
	if state.SelectedFieldID != field.ID {
		t.Fatalf("expected %q selected, got %q", field.ID, state.SelectedFieldID)
	}

	store.Dispatch(
		designer.SelectField{FieldID: ""},
		designer.UpdateField{FieldID: field.ID, Patch: designer.FieldPatch{Label: designer.String("Plan")}},
	)

	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	wantNames := []string{designer.CommandAddField, designer.CommandSelectField, designer.CommandUpdateField}
	wantSchema := []bool{true, false, true}
	for idx, change := range changes {
		if change.Command.Name() != wantNames[idx] {
			t.Fatalf("change %d: expected %s, got %s", idx, wantNames[idx], change.Command.Name())
		}
		if change.SchemaChanged != wantSchema[idx] {
			t.Fatalf("change %d: expected SchemaChanged=%v", idx, wantSchema[idx])
		}
	}
	if changes[2].Next.Schema.Fields[0].Label != "Plan" {
		t.Fatalf("listener saw stale state")
	}
	if logs.FilterMessage("designer command applied").Len() != 3 {
		t.Fatalf("expected 3 dispatch log entries, got %d", logs.Len())
	}

	unsubscribe()
	store.Dispatch(designer.SetMode{Mode: designer.ModePreview})
	if len(changes) != 3 {
		t.Fatalf("listener still called after unsubscribe")
	}
}

func TestStore_StateIsACopy(t *testing.T) {
	store := designer.New()
	_, _, err := store.AddDefaultField(schema.FieldTypeRadio)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	view := store.State()
	view.Schema.Title = "changed"
	view.Schema.Fields[0].Props.(schema.RadioProps).Options[0].Value = "changed"

	current := store.State()
	if current.Schema.Title != schema.DefaultFormTitle {
		t.Fatalf("title leaked through read view")
	}
	if current.Schema.Fields[0].Options()[0].Value != "opt1" {
		t.Fatalf("options leaked through read view")
	}
}

func TestStore_AddDefaultFieldUnknownType(t *testing.T) {
	store := designer.New()
	_, state, err := store.AddDefaultField("slider")
	if !errors.Is(err, schema.ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
	if len(state.Schema.Fields) != 0 {
		t.Fatalf("unknown type must not add a field")
	}
}

func TestStore_UndoRedo(t *testing.T) {
	store := designer.New(designer.WithFieldFactory(schema.NewFactory(counterIDs("ur"))))

	if _, ok := store.Undo(); ok {
		t.Fatalf("undo on fresh store should report false")
	}

	first, _, _ := store.AddDefaultField(schema.FieldTypeInput)
	second, _, _ := store.AddDefaultField(schema.FieldTypeNumber)
	store.Dispatch(designer.SetMode{Mode: designer.ModePreview})
	store.Dispatch(designer.SelectField{FieldID: first.ID})

	state, ok := store.Undo()
	if !ok {
		t.Fatalf("expected undo")
	}
	if diff := cmp.Diff([]string{first.ID}, fieldIDs(state.Schema)); diff != "" {
		t.Fatalf("undo mismatch (-want +got):\n%s", diff)
	}
	if state.SelectedFieldID != first.ID {
		t.Fatalf("selection of surviving field should be kept, got %q", state.SelectedFieldID)
	}

	state, ok = store.Redo()
	if !ok {
		t.Fatalf("expected redo")
	}
	if diff := cmp.Diff([]string{first.ID, second.ID}, fieldIDs(state.Schema)); diff != "" {
		t.Fatalf("redo mismatch (-want +got):\n%s", diff)
	}

	store.Undo()
	store.Undo()
	state = store.State()
	if len(state.Schema.Fields) != 0 || state.SelectedFieldID != "" {
		t.Fatalf("expected empty document with no selection, got %+v", state)
	}

	store.Dispatch(designer.UpdateForm{Patch: designer.FormPatch{Title: designer.String("Fresh")}})
	if store.CanRedo() {
		t.Fatalf("new change must drop redo history")
	}
}

func TestStore_HistoryLimit(t *testing.T) {
	store := designer.New(designer.WithHistoryLimit(2))
	for _, title := range []string{"a", "b", "c", "d"} {
		store.Dispatch(designer.UpdateForm{Patch: designer.FormPatch{Title: designer.String(title)}})
	}

	undone := 0
	for store.CanUndo() {
		store.Undo()
		undone++
	}
	if undone != 2 {
		t.Fatalf("expected 2 undo steps, got %d", undone)
	}
	if got := store.State().Schema.Title; got != "b" {
		t.Fatalf("expected oldest retained title b, got %q", got)
	}
}

func TestStore_RedoKeepsHistoryLimit(t *testing.T) {
	store := designer.New(designer.WithHistoryLimit(2))
	for _, title := range []string{"a", "b", "c", "d"} {
		store.Dispatch(designer.UpdateForm{Patch: designer.FormPatch{Title: designer.String(title)}})
	}
	for store.CanUndo() {
		store.Undo()
	}
	for store.CanRedo() {
		store.Redo()
	}
	if got := store.State().Schema.Title; got != "d" {
		t.Fatalf("expected title d after redo, got %q", got)
	}

	undone := 0
	for store.CanUndo() {
		store.Undo()
		undone++
	}
	if undone != 2 {
		t.Fatalf("expected 2 undo steps after redo, got %d", undone)
	}
}

func TestStore_Reset(t *testing.T) {
	store := designer.New(designer.WithSchema(schema.FormDocument{SchemaVersion: 1, Title: "Seeded"}))
	store.AddDefaultField(schema.FieldTypeDate)

	state := store.Reset()
	if diff := cmp.Diff(designer.InitialState(), state); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
	if store.CanUndo() {
		t.Fatalf("reset should clear history")
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := designer.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddDefaultField(schema.FieldTypeInput)
		}()
	}
	wg.Wait()

	state := store.State()
	if len(state.Schema.Fields) != 20 {
		t.Fatalf("expected 20 fields, got %d", len(state.Schema.Fields))
	}
	seen := map[string]bool{}
	for _, field := range state.Schema.Fields {
		if seen[field.ID] {
			t.Fatalf("duplicate id %s", field.ID)
		}
		seen[field.ID] = true
	}
}

func TestStore_ValidateAndSeed(t *testing.T) {
	seed := designer.DesignerState{
		Schema: schema.FormDocument{
			SchemaVersion: 1,
			Title:         "",
			Fields: []schema.Field{
				{ID: "a", Type: schema.FieldTypeSelect, Name: "plan", Props: schema.SelectProps{}},
			},
		},
		SelectedFieldID: "a",
	}
	store := designer.New(designer.WithState(seed))

	if store.State().Mode != designer.ModeDesign {
		t.Fatalf("missing mode should default to design")
	}
	want := []string{
		"form title must not be empty",
		"field (plan) requires at least one option",
	}
	if diff := cmp.Diff(want, store.Validate()); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ListenersSeeChangesInApplyOrder(t *testing.T) {
	store := designer.New()

	var (
		mu       sync.Mutex
		last     = store.State()
		disorder int
		total    int
	)
	store.Subscribe(func(change designer.Change) {
		mu.Lock()
		defer mu.Unlock()
		total++
		if !cmp.Equal(last, change.Prev) {
			disorder++
		}
		last = change.Next
	})

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, _, err := store.AddDefaultField(schema.FieldTypeInput); err != nil {
					t.Errorf("add field: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if total != 400 {
		t.Fatalf("expected 400 changes, got %d", total)
	}
	if disorder != 0 {
		t.Fatalf("%d of %d changes delivered out of order", disorder, total)
	}
	if diff := cmp.Diff(store.State(), last); diff != "" {
		t.Fatalf("last delivered state differs from store (-want +got):\n%s", diff)
	}
}

func TestStore_IneffectiveUpdateRecordsNoHistory(t *testing.T) {
	store := designer.New(designer.WithSchema(schema.FormDocument{
		SchemaVersion: 1,
		Title:         "Contact",
		Fields: []schema.Field{
			{ID: "a", Type: schema.FieldTypeInput, Name: "email", Label: "Email", Props: schema.InputProps{}},
		},
	}))

	var changes []designer.Change
	store.Subscribe(func(change designer.Change) {
		changes = append(changes, change)
	})

	store.Dispatch(
		designer.UpdateField{FieldID: "a", Patch: designer.FieldPatch{Rows: designer.Int(8), Min: designer.Float(1)}},
		designer.UpdateField{FieldID: "a", Patch: designer.FieldPatch{Label: designer.String("Email")}},
	)
	if store.CanUndo() {
		t.Fatalf("patches that change nothing should not be undoable")
	}
	for _, change := range changes {
		if change.SchemaChanged {
			t.Fatalf("%s reported a schema change", change.Command.Name())
		}
	}

	store.Dispatch(designer.UpdateField{FieldID: "a", Patch: designer.FieldPatch{Rows: designer.Int(8), Label: designer.String("Work email")}})
	if !store.CanUndo() {
		t.Fatalf("a patch with an applicable key should be undoable")
	}
}
