// Package render draws a running simulation in an ebiten window.
package render

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"tsunami/internal/palette"
	"tsunami/internal/playback"
)

// Options configures the window.
type Options struct {
	Title       string
	WindowScale int
	Debug       bool
	// Autostart begins the run without waiting for the space key.
	Autostart bool
}

// Game maps keys onto a playback.Session and paints its latest snapshot.
// The simulation itself runs on the loop's goroutine; Game only ever sees
// snapshots.
type Game struct {
	session *playback.Session
	opts    Options

	width, height int
	pixels        []byte
	scale         *palette.Scale
}

// NewGame prepares a window for session.
func NewGame(session *playback.Session, opts Options) *Game {
	if opts.WindowScale < 1 {
		opts.WindowScale = 1
	}
	latest := session.Latest()
	nx, ny := latest.Grid.Size()
	return &Game{
		session: session,
		opts:    opts,
		width:   nx,
		height:  ny,
		pixels:  make([]byte, nx*ny*4),
		scale:   palette.NewScale(ebiten.TPS(), latest.MaxAbs()),
	}
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.width*g.opts.WindowScale, g.height*g.opts.WindowScale)
	ebiten.SetWindowTitle(g.opts.Title)
	if g.opts.Autostart {
		g.session.Start()
	}
	err := ebiten.RunGame(g)
	g.session.Stop()
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err != nil {
		return err
	}
	return g.session.Err()
}

// Update handles input and consumes committed snapshots.
func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.session.Start()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.session.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.session.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.opts.Debug = !g.opts.Debug
	}
	g.handleSpeedControls()

	g.session.Update()
	g.scale.Update(g.session.Latest().MaxAbs())
	return nil
}

// handleSpeedControls lets -/+ change how many steps each frame consumes.
func (g *Game) handleSpeedControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.session.AdjustStepsPerFrame(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.session.AdjustStepsPerFrame(1)
	}
}

// Draw paints the latest snapshot.
func (g *Game) Draw(screen *ebiten.Image) {
	// The colour scale moves every frame, so repaint unconditionally.
	palette.Paint(g.pixels, g.session.Latest(), g.scale.Value())
	screen.WritePixels(g.pixels)

	if g.opts.Debug {
		ebitenutil.DebugPrint(screen, g.status())
	}
}

func (g *Game) status() string {
	state := g.session.State()
	hint := ""
	switch state {
	case playback.Idle:
		hint = " (space)"
	case playback.Paused:
		hint = " (p)"
	case playback.Finished, playback.Stopped:
		hint = " (r: reset)"
	}
	latest := g.session.Latest()
	return fmt.Sprintf("%s%s\nStep %d/%d  t=%.1fs  x%d/frame (-/+)\nmax|eta| %.4f m  scale %.4f\nTPS %.1f",
		state, hint, latest.Step, g.session.Steps(), latest.Time, g.session.StepsPerFrame(),
		latest.MaxAbs(), g.scale.Value(), ebiten.ActualTPS())
}

// Layout reports the grid size as the logical screen.
func (g *Game) Layout(_, _ int) (int, int) { return g.width, g.height }
