package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/hay-kot/quire/internal/core/config"
)

// KeybindingResolver maps key presses to reader actions.
type KeybindingResolver struct {
	byKey    map[string]string
	bindings map[string]key.Binding
}

// NewKeybindingResolver builds a resolver from the merged keybindings.
// Every action gets one key.Binding holding all of its keys, for help.
func NewKeybindingResolver(keybindings map[string]config.Keybinding) *KeybindingResolver {
	r := &KeybindingResolver{
		byKey:    make(map[string]string, len(keybindings)),
		bindings: make(map[string]key.Binding),
	}

	keysByAction := map[string][]string{}
	helpByAction := map[string]string{}
	for k, kb := range keybindings {
		if !config.IsValidAction(kb.Action) {
			continue
		}
		r.byKey[k] = kb.Action
		keysByAction[kb.Action] = append(keysByAction[kb.Action], k)
		if helpByAction[kb.Action] == "" {
			helpByAction[kb.Action] = kb.Help
		}
	}

	for action, keys := range keysByAction {
		slices.Sort(keys)
		r.bindings[action] = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(displayKeys(keys), helpByAction[action]),
		)
	}

	return r
}

// Resolve returns the action bound to the key press k.
func (r *KeybindingResolver) Resolve(k string) (string, bool) {
	action, ok := r.byKey[k]
	return action, ok
}

// Binding returns the key.Binding of action.
func (r *KeybindingResolver) Binding(action string) (key.Binding, bool) {
	b, ok := r.bindings[action]
	return b, ok
}

// HelpBindings returns the bindings of every bound action in help order.
func (r *KeybindingResolver) HelpBindings() []key.Binding {
	var out []key.Binding
	for _, action := range config.Actions() {
		if b, ok := r.bindings[action]; ok {
			out = append(out, b)
		}
	}
	return out
}

func displayKeys(keys []string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		out[i] = k
	}
	return strings.Join(out, "/")
}
