package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/store"
)

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	First         key.Binding
	Last          key.Binding
	Refresh       key.Binding
	ShowStory     key.Binding
	CopyStory     key.Binding
	ShowComments  key.Binding
	CopyComments  key.Binding
	ShowSubmitter key.Binding
	CopySubmitter key.Binding
	Help          key.Binding
	Quit          key.Binding

	// Category switches, in store.Categories() order.
	Categories []categoryBinding
}

type categoryBinding struct {
	Category store.Category
	Binding  key.Binding
}

func newKeyMap(kb config.Keybindings) keyMap {
	km := keyMap{
		Up:            bind(kb.Up, "up"),
		Down:          bind(kb.Down, "down"),
		PageUp:        bind(kb.PageUp, "page up"),
		PageDown:      bind(kb.PageDown, "page down"),
		First:         bind(kb.FirstStory, "first"),
		Last:          bind(kb.LastStory, "last"),
		Refresh:       bind(kb.Refresh, "refresh"),
		ShowStory:     bind(kb.ShowStoryLink, "story link"),
		CopyStory:     bind(kb.CopyStoryLink, "copy story link"),
		ShowComments:  bind(kb.ShowCommentsLink, "comments link"),
		CopyComments:  bind(kb.CopyCommentsLink, "copy comments link"),
		ShowSubmitter: bind(kb.ShowSubmitterLink, "submitter link"),
		CopySubmitter: bind(kb.CopySubmitterLink, "copy submitter link"),
		Help:          bind(kb.Help, "help"),
		Quit:          bind(kb.Quit, "quit"),
	}

	byCat := kb.CategoryKeys()
	for _, cat := range store.Categories() {
		km.Categories = append(km.Categories, categoryBinding{
			Category: cat,
			Binding:  bind(byCat[cat], strings.ToLower(cat.Label())),
		})
	}
	return km
}

// bind builds a binding from a comma-separated key list. An empty list
// yields a disabled binding.
func bind(keys, desc string) key.Binding {
	ks := config.Keys(keys)
	b := key.NewBinding(
		key.WithKeys(ks...),
		key.WithHelp(strings.Join(ks, "/"), desc),
	)
	if len(ks) == 0 {
		b.SetEnabled(false)
	}
	return b
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Refresh, k.CopyStory, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	cats := make([]key.Binding, len(k.Categories))
	for i, c := range k.Categories {
		cats[i] = c.Binding
	}
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.First, k.Last},
		{k.ShowStory, k.CopyStory, k.ShowComments, k.CopyComments, k.ShowSubmitter, k.CopySubmitter},
		cats,
		{k.Refresh, k.Help, k.Quit},
	}
}
