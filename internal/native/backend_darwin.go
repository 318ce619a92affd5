//go:build darwin

package native

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/progrium/darwinkit/dispatch"
	"github.com/progrium/darwinkit/macos/appkit"
	"github.com/progrium/darwinkit/macos/foundation"
	"github.com/progrium/darwinkit/macos/webkit"
	"github.com/progrium/darwinkit/objc"

	"github.com/aurapanel/aurapanel/internal/model"
)

// Window levels relative to the normal layer. Bars and panels float above
// regular application windows.
const floatingWindowLevel = 3

type darwinSurface struct {
	window appkit.Window
	panel  bool
	label  string
}

// darwinBackend realizes surfaces as AppKit windows and non-activating
// panels. All methods must run on the main thread; Schedule marshals there
// via the GCD main queue.
type darwinBackend struct {
	logger *slog.Logger

	mu       sync.Mutex
	surfaces map[SurfaceID]*darwinSurface
	nextID   SurfaceID

	events    chan Event
	observers []objc.Object
}

// New returns the AppKit backend. The caller must start the shared
// application run loop on the process's main thread before scheduling
// surface operations.
func New(logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &darwinBackend{
		logger:   logger,
		surfaces: make(map[SurfaceID]*darwinSurface),
		nextID:   1,
		events:   make(chan Event, 64),
	}
	b.installObservers()
	return b, nil
}

// RunApp configures the shared application as an accessory (no Dock icon,
// no menu bar takeover) and enters the AppKit run loop. It never returns
// until the application terminates. ready is invoked once the application
// has finished launching.
func RunApp(ready func()) {
	app := appkit.Application_SharedApplication()
	app.SetActivationPolicy(appkit.ApplicationActivationPolicyAccessory)

	delegate := &appkit.ApplicationDelegate{}
	delegate.SetApplicationDidFinishLaunching(func(foundation.Notification) {
		if ready != nil {
			ready()
		}
	})
	app.SetDelegate(delegate)
	app.Run()
}

// TerminateApp asks the shared application to exit.
func TerminateApp() {
	dispatch.MainQueue().DispatchAsync(func() {
		appkit.Application_SharedApplication().Terminate(nil)
	})
}

func (b *darwinBackend) Schedule(fn func()) {
	dispatch.MainQueue().DispatchAsync(fn)
}

func (b *darwinBackend) installObservers() {
	center := foundation.NotificationCenter_DefaultCenter()

	screens := center.AddObserverForNameObjectQueueUsingBlock(
		foundation.NotificationName("NSApplicationDidChangeScreenParametersNotification"),
		nil, nil,
		func(foundation.Notification) {
			b.emit(Event{Kind: EventDisplaysChanged})
		})
	deactivate := center.AddObserverForNameObjectQueueUsingBlock(
		foundation.NotificationName("NSApplicationDidResignActiveNotification"),
		nil, nil,
		func(foundation.Notification) {
			b.emit(Event{Kind: EventAppDeactivated})
		})
	b.observers = append(b.observers, screens, deactivate)
}

func (b *darwinBackend) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Warn("native event dropped", "kind", ev.Kind, "label", ev.Label)
	}
}

func (b *darwinBackend) Events() <-chan Event { return b.events }

// Displays queries NSScreen and converts every frame from AppKit's
// bottom-left global origin to the virtual desktop's top-left origin. The
// first screen in NSScreen.screens holds the global origin and is the
// primary.
func (b *darwinBackend) Displays() ([]model.Monitor, error) {
	screens := appkit.Screen_Screens()
	if len(screens) == 0 {
		return nil, fmt.Errorf("no screens reported by appkit")
	}

	primaryFrame := screens[0].Frame()
	monitors := make([]model.Monitor, 0, len(screens))
	for i, s := range screens {
		f := s.Frame()
		scale := s.BackingScaleFactor()
		monitors = append(monitors, model.Monitor{
			ID:          i,
			Name:        s.LocalizedName(),
			X:           f.Origin.X,
			Y:           primaryFrame.Size.Height - (f.Origin.Y + f.Size.Height),
			Width:       f.Size.Width,
			Height:      f.Size.Height,
			ScaleFactor: scale,
			Primary:     i == 0,
		})
	}
	return monitors, nil
}

// toNativeRect converts a virtual-desktop rectangle to AppKit global
// coordinates (bottom-left origin, y growing upward).
func (b *darwinBackend) toNativeRect(r model.Rect) (foundation.Rect, error) {
	screens := appkit.Screen_Screens()
	if len(screens) == 0 {
		return foundation.Rect{}, fmt.Errorf("no screens reported by appkit")
	}
	primaryHeight := screens[0].Frame().Size.Height
	return foundation.Rect{
		Origin: foundation.Point{X: r.X, Y: primaryHeight - r.Y - r.Height},
		Size:   foundation.Size{Width: r.Width, Height: r.Height},
	}, nil
}

func (b *darwinBackend) CreateWindow(cfg SurfaceConfig) (SurfaceID, error) {
	frame, err := b.toNativeRect(cfg.Frame)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	w := appkit.NewWindowWithContentRectStyleMaskBackingDefer(
		frame, appkit.WindowStyleMaskBorderless, appkit.BackingStoreBuffered, false)
	if w.IsNil() {
		return 0, ErrCreateFailed
	}
	b.applyFlags(w, cfg)
	b.attachContent(w, cfg)
	return b.register(w, false, cfg.Label), nil
}

func (b *darwinBackend) CreatePanel(cfg SurfaceConfig) (SurfaceID, error) {
	frame, err := b.toNativeRect(cfg.Frame)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPanelUnavailable, err)
	}

	style := appkit.WindowStyleMaskBorderless
	if cfg.NonActivating {
		style |= appkit.WindowStyleMaskNonactivatingPanel
	}
	p := appkit.NewPanelWithContentRectStyleMaskBackingDefer(
		frame, style, appkit.BackingStoreBuffered, false)
	if p.IsNil() {
		return 0, ErrPanelUnavailable
	}
	p.SetFloatingPanel(true)
	p.SetBecomesKeyOnlyIfNeeded(false)
	b.applyFlags(p.Window, cfg)

	id := b.register(p.Window, true, cfg.Label)

	// Blur reaches back through the delegate; the controller owns the
	// strong reference to the panel.
	delegate := &appkit.WindowDelegate{}
	delegate.SetWindowDidResignKey(func(foundation.Notification) {
		b.emit(Event{Kind: EventBlur, Surface: id, Label: cfg.Label})
	})
	p.SetDelegate(delegate)

	b.attachContent(p.Window, cfg)
	return id, nil
}

func (b *darwinBackend) applyFlags(w appkit.Window, cfg SurfaceConfig) {
	w.SetTitle(cfg.Label)
	w.SetHasShadow(false)
	if cfg.Flags.Transparent {
		w.SetOpaque(false)
		w.SetBackgroundColor(appkit.Color_ClearColor())
	}
	if cfg.Flags.AlwaysOnTop || cfg.NonActivating {
		w.SetLevel(floatingWindowLevel)
	}
	if cfg.Flags.ClickThrough {
		w.SetIgnoresMouseEvents(true)
	}
	w.SetCollectionBehavior(appkit.WindowCollectionBehaviorCanJoinAllSpaces |
		appkit.WindowCollectionBehaviorStationary)
}

func (b *darwinBackend) attachContent(w appkit.Window, cfg SurfaceConfig) {
	if cfg.URL == "" {
		return
	}
	wv := webkit.NewWebViewWithFrameConfiguration(
		foundation.Rect{Size: foundation.Size{Width: cfg.Frame.Width, Height: cfg.Frame.Height}},
		webkit.NewWebViewConfiguration())
	req := foundation.NewURLRequestWithURL(foundation.URL_URLWithString(cfg.URL))
	wv.LoadRequest(req)
	w.SetContentView(wv)
}

func (b *darwinBackend) register(w appkit.Window, panel bool, label string) SurfaceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.surfaces[id] = &darwinSurface{window: w, panel: panel, label: label}
	return id
}

func (b *darwinBackend) surface(id SurfaceID) (*darwinSurface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSurfaceNotFound, id)
	}
	return s, nil
}

func (b *darwinBackend) SetFrame(id SurfaceID, frame model.Rect) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	native, err := b.toNativeRect(frame)
	if err != nil {
		return err
	}
	s.window.SetFrameDisplay(native, true)
	return nil
}

func (b *darwinBackend) SetSize(id SurfaceID, width, height float64) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	f := s.window.Frame()
	// Keep the top-left corner fixed: AppKit frames grow upward.
	f.Origin.Y += f.Size.Height - height
	f.Size = foundation.Size{Width: width, Height: height}
	s.window.SetFrameDisplay(f, true)
	return nil
}

func (b *darwinBackend) Show(id SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	if s.panel {
		s.window.OrderFrontRegardless()
	} else {
		s.window.OrderFront(nil)
	}
	return nil
}

func (b *darwinBackend) Hide(id SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.window.OrderOut(nil)
	return nil
}

func (b *darwinBackend) Close(id SurfaceID) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.surfaces, id)
	b.mu.Unlock()
	s.window.OrderOut(nil)
	s.window.Close()
	return nil
}

func (b *darwinBackend) SetClickThrough(id SurfaceID, enabled bool) error {
	s, err := b.surface(id)
	if err != nil {
		return err
	}
	s.window.SetIgnoresMouseEvents(enabled)
	return nil
}

// MouseLocation reports the pointer in virtual-desktop coordinates.
func (b *darwinBackend) MouseLocation() (float64, float64, error) {
	screens := appkit.Screen_Screens()
	if len(screens) == 0 {
		return 0, 0, fmt.Errorf("no screens reported by appkit")
	}
	p := appkit.Event_MouseLocation()
	primaryHeight := screens[0].Frame().Size.Height
	return p.X, primaryHeight - p.Y, nil
}
