// ABOUTME: Key bindings for the lyrics player
// ABOUTME: Bindings are enabled per mode so help only lists what works
package ui

import (
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Toggle      key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	Next        key.Binding
	Previous    key.Binding
	Edit        key.Binding
	Sync        key.Binding
	Mark        key.Binding
	Up          key.Binding
	Down        key.Binding
	Save        key.Binding
	Cancel      key.Binding
	Reload      key.Binding
	Copy        key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Queue       key.Binding
	QueuePlay   key.Binding
	QueueRemove key.Binding
	Rescan      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	k := keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		SeekBack:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "back")),
		SeekForward: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "forward")),
		Next:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Previous:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Sync:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		Mark:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "mark line")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "prev line")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next line")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy lyrics")),
		VolumeUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		VolumeDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		Queue:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "queue")),
		QueuePlay:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		QueueRemove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Rescan:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add new files")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	k.setMode(lyrics.ModeView, false)
	return k
}

// setMode enables the bindings that apply in mode. The queue pane only
// opens over View mode.
func (k *keyMap) setMode(mode lyrics.Mode, queueOpen bool) {
	sync := mode == lyrics.ModeSync
	edit := mode == lyrics.ModeEdit
	queue := mode == lyrics.ModeView && queueOpen
	view := mode == lyrics.ModeView && !queueOpen

	k.Toggle.SetEnabled(!edit)
	k.SeekBack.SetEnabled(!edit)
	k.SeekForward.SetEnabled(!edit)
	k.VolumeUp.SetEnabled(!edit)
	k.VolumeDown.SetEnabled(!edit)
	k.Next.SetEnabled(view)
	k.Previous.SetEnabled(view)
	k.Edit.SetEnabled(view)
	k.Sync.SetEnabled(view)
	k.Reload.SetEnabled(view)
	k.Copy.SetEnabled(view)
	k.Help.SetEnabled(!edit)
	k.Quit.SetEnabled(!edit)

	k.Queue.SetEnabled(view || queue)
	k.QueuePlay.SetEnabled(queue)
	k.QueueRemove.SetEnabled(queue)
	k.Rescan.SetEnabled(queue)
	if queue {
		k.Queue.SetHelp("l", "close queue")
		k.Up.SetHelp("↑", "up")
		k.Down.SetHelp("↓", "down")
	} else {
		k.Queue.SetHelp("l", "queue")
		k.Up.SetHelp("↑", "prev line")
		k.Down.SetHelp("↓", "next line")
	}

	k.Mark.SetEnabled(sync)
	k.Up.SetEnabled(sync || queue)
	k.Down.SetEnabled(sync || queue)

	k.Save.SetEnabled(!view)
	k.Cancel.SetEnabled(!view)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Mark, k.QueuePlay, k.QueueRemove, k.Save, k.Cancel, k.Edit, k.Sync, k.Next, k.Queue, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.SeekBack, k.SeekForward, k.VolumeUp, k.VolumeDown},
		{k.Next, k.Previous, k.Queue, k.QueuePlay, k.QueueRemove, k.Rescan},
		{k.Edit, k.Sync, k.Mark, k.Up, k.Down},
		{k.Save, k.Cancel, k.Reload, k.Copy, k.Help, k.Quit},
	}
}
