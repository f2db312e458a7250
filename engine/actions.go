package engine

import (
	"fmt"

	"github.com/tabwell/tq/table"
)

// Step is one declared action: a name plus its instruction payload as
// decoded from the rule file. A bare name has a nil payload.
type Step struct {
	Name    string
	Payload any
}

// Action is a single validated transformation. Apply never mutates its
// input table; it returns a new value.
type Action interface {
	Name() string
	Apply(t *table.Table) (*table.Table, error)
}

// registry maps action names to payload-validating constructors. The
// set is closed; anything else is an UnknownActionError. Populated in
// init because only_edit_rows_where builds nested ActionLists, which
// read the registry back; a map literal here would be an
// initialization cycle.
var registry map[string]func(payload any) (Action, error)

func init() {
	registry = map[string]func(payload any) (Action, error){
		"change_date_or_time_format":      newDateFormatAction,
		"copy_column":                     newCopyColumnAction,
		"rename_column":                   newRenameColumnAction,
		"extract_query_string":            newExtractQueryStringAction,
		"extract_text":                    newExtractTextAction,
		"only_keep_these_columns":         newKeepColumnsAction,
		"only_keep_rows_where":            newFilterRowsAction,
		"only_edit_rows_where":            newScopedEditAction,
		"run_these_formula":               newFormulaAction,
		"remove_columns":                  newRemoveColumnsAction,
		"remove_duplicates":               newRemoveDuplicatesAction,
		"replace_text":                    newReplaceTextAction,
		"add_text_at_end":                 newAppendTextAction,
		"add_text_at_start":               newPrependTextAction,
		"sum_up_by":                       newGroupSumAction,
		"make_column_names_lowercase":     newLowercaseNamesAction,
		"make_column_names_alphanumeric":  newAlphanumericNamesAction,
		"ensure_column_is_in_this_format": newEnsureFormatAction,
	}
}

// ActionList is an ordered, fully validated sequence of actions.
type ActionList struct {
	actions []Action
}

// NewActionList resolves and validates every step up front, so a bad
// declaration can never leave a pipeline partially executed.
func NewActionList(steps []Step) (*ActionList, error) {
	actions := make([]Action, 0, len(steps))
	for _, step := range steps {
		ctor, ok := registry[step.Name]
		if !ok {
			return nil, &UnknownActionError{Name: step.Name}
		}
		a, err := ctor(step.Payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name, err)
		}
		actions = append(actions, a)
	}
	return &ActionList{actions: actions}, nil
}

// Apply threads the table through the actions in declaration order.
func (l *ActionList) Apply(t *table.Table) (*table.Table, error) {
	current := t
	for _, a := range l.actions {
		var err error
		current, err = a.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name(), err)
		}
	}
	return current, nil
}

// Len reports the number of actions in the list.
func (l *ActionList) Len() int {
	return len(l.actions)
}

// StepsFromPayload converts a decoded list_of_actions payload (each
// entry a bare name string or a single-key mapping) into Steps. Used
// for the nested pipelines of only_edit_rows_where.
func StepsFromPayload(payload any) ([]Step, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("list_of_actions: expected a list, got %T", payload)
	}
	steps := make([]Step, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			steps = append(steps, Step{Name: v})
		case map[string]any:
			if len(v) != 1 {
				return nil, fmt.Errorf("list_of_actions: each entry must have exactly one action name, got %d", len(v))
			}
			for name, p := range v {
				steps = append(steps, Step{Name: name, Payload: p})
			}
		default:
			return nil, fmt.Errorf("list_of_actions: unexpected entry of type %T", entry)
		}
	}
	return steps, nil
}

// --- payload decoding helpers ---

func stringList(payload any) ([]string, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", payload)
	}
}

func mapList(payload any) ([]map[string]any, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of mappings, got %T", payload)
	}
	out := make([]map[string]any, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a mapping, got %T", e)
		}
		out[i] = m
	}
	return out, nil
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected a string, got %T", key, v)
	}
	return s, nil
}
