package memhost

import (
	"sync"

	"github.com/banshee-data/lesson.view/internal/host"
)

// Overlay records labels and dialogs.
type Overlay struct {
	mu      sync.Mutex
	labels  []*Label
	dialogs []*Dialog
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay { return &Overlay{} }

func (o *Overlay) AddLabel(text string) host.Label {
	l := &Label{Text: text}
	o.mu.Lock()
	o.labels = append(o.labels, l)
	o.mu.Unlock()
	return l
}

func (o *Overlay) AddDialog(spec host.DialogSpec) host.Dialog {
	d := &Dialog{Spec: spec, scale: 1}
	o.mu.Lock()
	o.dialogs = append(o.dialogs, d)
	o.mu.Unlock()
	return d
}

// Labels returns every label ever added.
func (o *Overlay) Labels() []*Label {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Label(nil), o.labels...)
}

// LiveLabels returns labels that have not been disposed.
func (o *Overlay) LiveLabels() []*Label {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*Label
	for _, l := range o.labels {
		if !l.Disposed() {
			out = append(out, l)
		}
	}
	return out
}

// Dialogs returns every dialog ever added.
func (o *Overlay) Dialogs() []*Dialog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Dialog(nil), o.dialogs...)
}

// LiveDialog returns the most recent dialog that has not been disposed.
func (o *Overlay) LiveDialog() (*Dialog, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.dialogs) - 1; i >= 0; i-- {
		if !o.dialogs[i].Disposed() {
			return o.dialogs[i], true
		}
	}
	return nil, false
}

// Label is a recorded screen-space label.
type Label struct {
	mu       sync.Mutex
	Text     string
	anchor   host.Mesh
	disposed int
}

func (l *Label) LinkWithMesh(m host.Mesh) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.anchor = m
}

func (l *Label) Dispose() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disposed++
}

// Anchor returns the linked mesh.
func (l *Label) Anchor() host.Mesh {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.anchor
}

// Disposed reports whether Dispose was called at least once.
func (l *Label) Disposed() bool { return l.DisposeCount() > 0 }

// DisposeCount returns how many times Dispose was called.
func (l *Label) DisposeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disposed
}

// Dialog is a recorded dialog card.
type Dialog struct {
	mu       sync.Mutex
	Spec     host.DialogSpec
	onButton func()
	scale    float64
	disposed bool
}

func (d *Dialog) OnButton(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onButton = fn
}

func (d *Dialog) SetScale(s float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scale = s
}

func (d *Dialog) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
}

// Press simulates a click on the dialog button.
func (d *Dialog) Press() {
	d.mu.Lock()
	fn := d.onButton
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Scale returns the last scale set.
func (d *Dialog) Scale() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scale
}

// Disposed reports whether Dispose was called.
func (d *Dialog) Disposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

// TopMenu records caption bar state.
type TopMenu struct {
	mu        sync.Mutex
	visible   bool
	caption   string
	maximized bool
	scale     float64
	arIcon    bool
}

// NewTopMenu creates a hidden top menu at scale 1.
func NewTopMenu() *TopMenu { return &TopMenu{scale: 1} }

func (t *TopMenu) SetVisible(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = v
}

func (t *TopMenu) SetCaption(c string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.caption = c
}

func (t *TopMenu) MaximizeCaption() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maximized = true
}

func (t *TopMenu) MinimizeCaption() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maximized = false
}

func (t *TopMenu) SetScale(s float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scale = s
}

func (t *TopMenu) SetARIcon(inAR bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arIcon = inAR
}

// TopMenuState is a snapshot of the top menu.
type TopMenuState struct {
	Visible   bool
	Caption   string
	Maximized bool
	Scale     float64
	ARIcon    bool
}

// State returns a snapshot.
func (t *TopMenu) State() TopMenuState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TopMenuState{
		Visible:   t.visible,
		Caption:   t.caption,
		Maximized: t.maximized,
		Scale:     t.scale,
		ARIcon:    t.arIcon,
	}
}
