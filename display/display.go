// Package display hosts a console in an ebiten window: one emulated frame
// per Update, keyboard input merged with network input, audio playback
// and a small menu bar with a live controller HUD.
package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/console"
	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/ppu"
	"github.com/Overflow0xFFFF/nesproject/savefile"
	"github.com/Overflow0xFFFF/nesproject/server"
	"github.com/Overflow0xFFFF/nesproject/wavwriter"
)

const (
	menuBarHeight = 50
	hudHeight     = 140
	blinkFrames   = 30
	audioLatency  = 60 * time.Millisecond
)

var (
	nesRed    = color.RGBA{220, 50, 50, 255}
	chassis   = color.RGBA{190, 190, 190, 255}
	darkPanel = color.RGBA{40, 40, 40, 255}
)

// keymap binds player one's buttons to the keyboard.
var keymap = [8]ebiten.Key{
	controller.ButtonA:      ebiten.KeyZ,
	controller.ButtonB:      ebiten.KeyX,
	controller.ButtonSelect: ebiten.KeyShift,
	controller.ButtonStart:  ebiten.KeyEnter,
	controller.ButtonUp:     ebiten.KeyArrowUp,
	controller.ButtonDown:   ebiten.KeyArrowDown,
	controller.ButtonLeft:   ebiten.KeyArrowLeft,
	controller.ButtonRight:  ebiten.KeyArrowRight,
}

// Options configures a Display.
type Options struct {
	// Scale is the integer zoom applied to the 256x240 picture.
	Scale int
	// ROMPath is the file of the cartridge already inserted, if any.
	// Battery RAM and quick save states live next to it.
	ROMPath string
	// Recorder, if set, receives player one's input every frame.
	Recorder *controller.Recorder
	// Wav, if set, receives every audio sample.
	Wav *wavwriter.WavWriter
}

type button struct {
	label string
	x, y  float32
	w, h  float32
}

func (b button) contains(x, y float32) bool {
	return x >= b.x && x <= b.x+b.w && y >= b.y && y <= b.y+b.h
}

var (
	powerButton = button{"POWER", 60, 5, 80, 40}
	resetButton = button{"RESET", 150, 5, 80, 40}
	loadButton  = button{"LOAD", 240, 5, 80, 40}
	pauseButton = button{"PAUSE", 330, 5, 80, 40}
)

// Display implements ebiten.Game.
type Display struct {
	machine *server.Machine
	opts    Options

	queue  *sampleQueue
	player *audio.Player

	face          text.Face
	frameImage    *ebiten.Image
	rgba          *image.RGBA
	staticImage   *ebiten.Image
	staticPix     []byte
	scanlineImage *ebiten.Image

	picker          *romPicker
	resetBlinkTimer int
	currentButtons  controller.Buttons
	lastErr         error
	status          string
	statusTimer     int
}

// New creates the window contents for m. The audio context runs at the
// console's sample rate.
func New(m *server.Machine, opts Options) *Display {
	if opts.Scale <= 0 {
		opts.Scale = 3
	}
	d := &Display{
		machine:     m,
		opts:        opts,
		face:        text.NewGoXFace(basicfont.Face7x13),
		frameImage:  ebiten.NewImage(ppu.Width, ppu.Height),
		rgba:        image.NewRGBA(image.Rect(0, 0, ppu.Width, ppu.Height)),
		staticImage: ebiten.NewImage(ppu.Width, ppu.Height),
		staticPix:   make([]byte, ppu.Width*ppu.Height*4),
		picker:      newROMPicker(pickROMFile),
	}

	var rate int
	m.Do(func(c *console.Console) error {
		rate = c.SampleRate()
		return nil
	})
	d.queue = newSampleQueue(rate / 4)
	player, err := audio.NewContext(rate).NewPlayerF32(d.queue)
	if err != nil {
		glog.Errorf("Error creating audio player: %v", err)
	} else {
		player.SetBufferSize(audioLatency)
		player.Play()
		d.player = player
	}

	// Darken every other row for a CRT look.
	d.scanlineImage = ebiten.NewImage(ppu.Width, ppu.Height)
	for y := 0; y < ppu.Height; y += 2 {
		vector.DrawFilledRect(d.scanlineImage, 0, float32(y), ppu.Width, 1, color.RGBA{0, 0, 0, 70}, false)
	}
	return d
}

// Size returns the window size in pixels.
func (d *Display) Size() (int, int) {
	return ppu.Width * d.opts.Scale, menuBarHeight + ppu.Height*d.opts.Scale + hudHeight
}

// Layout takes the outside size and returns the logical screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.Size()
}

func (d *Display) flash(format string, args ...any) {
	d.status = fmt.Sprintf(format, args...)
	d.statusTimer = 120
}

func (d *Display) loadROM(path string) {
	img, err := cartridge.Load(path)
	if err != nil {
		glog.Errorf("Error loading ROM: %v", err)
		d.flash("load failed: %v", err)
		return
	}
	err = d.machine.Do(func(c *console.Console) error {
		if c.HasCartridge() && d.opts.ROMPath != "" {
			if err := savefile.SaveBattery(c, savefile.BatteryPath(d.opts.ROMPath)); err != nil {
				glog.Errorf("Error saving battery RAM: %v", err)
			}
		}
		if err := c.Insert(img); err != nil {
			return err
		}
		return savefile.LoadBattery(c, savefile.BatteryPath(path))
	})
	if err != nil {
		glog.Errorf("Error inserting ROM: %v", err)
		d.flash("insert failed: %v", err)
		return
	}
	d.opts.ROMPath = path
	d.lastErr = nil
	d.machine.SetPaused(false)
	d.flash("loaded %s", path)
}

func (d *Display) stateFile() string {
	return d.opts.ROMPath + ".state"
}

func (d *Display) withCartridge(f func(c *console.Console) error) error {
	return d.machine.Do(func(c *console.Console) error {
		if !c.HasCartridge() {
			return console.ErrNoCartridge
		}
		return f(c)
	})
}

func (d *Display) reset() {
	if err := d.withCartridge(func(c *console.Console) error {
		c.Reset()
		return nil
	}); err != nil {
		return
	}
	d.lastErr = nil
	d.machine.SetPaused(false)
	d.resetBlinkTimer = blinkFrames
}

func (d *Display) handleMenu() error {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return nil
	}
	cx, cy := ebiten.CursorPosition()
	x, y := float32(cx), float32(cy)
	switch {
	case powerButton.contains(x, y):
		return ebiten.Termination
	case resetButton.contains(x, y):
		d.reset()
	case loadButton.contains(x, y):
		if !d.picker.Start() {
			d.flash("file dialog already open")
		}
	case pauseButton.contains(x, y):
		d.machine.SetPaused(!d.machine.Paused())
	}
	return nil
}

func (d *Display) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		d.machine.SetPaused(!d.machine.Paused())
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		d.reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if err := d.withCartridge(func(c *console.Console) error {
			return savefile.SaveState(c, d.stateFile())
		}); err != nil {
			d.flash("save failed: %v", err)
		} else {
			d.flash("state saved")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		if err := d.dumpPatternTables(); err != nil {
			d.flash("dump failed: %v", err)
		} else {
			d.flash("pattern tables written")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		if err := d.withCartridge(func(c *console.Console) error {
			return savefile.LoadState(c, d.stateFile())
		}); err != nil {
			d.flash("load failed: %v", err)
		} else {
			d.lastErr = nil
			d.flash("state loaded")
		}
	}
}

// dumpPatternTables writes both pattern tables, side by side and zoomed
// 2x, to a PNG next to the ROM.
func (d *Display) dumpPatternTables() error {
	const zoom = 2
	sheet := image.NewRGBA(image.Rect(0, 0, 256*zoom, 128*zoom))
	err := d.withCartridge(func(c *console.Console) error {
		for i := 0; i < 2; i++ {
			table := c.PatternTable(i, 0)
			dst := image.Rect(i*128*zoom, 0, (i+1)*128*zoom, 128*zoom)
			draw.NearestNeighbor.Scale(sheet, dst, table, table.Bounds(), draw.Src, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	f, err := os.Create(d.opts.ROMPath + ".patterns.png")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, sheet); err != nil {
		return err
	}
	return f.Close()
}

func localButtons() controller.Buttons {
	var b controller.Buttons
	for i, key := range keymap {
		b[i] = ebiten.IsKeyPressed(key)
	}
	return b
}

// Update runs one emulated frame. It is called every tick (1/60 s).
func (d *Display) Update() error {
	select {
	case filename := <-d.picker.Chosen():
		d.loadROM(filename)
	default:
	}

	if err := d.handleMenu(); err != nil {
		return err
	}
	d.handleHotkeys()
	if d.resetBlinkTimer > 0 {
		d.resetBlinkTimer--
	}
	if d.statusTimer > 0 {
		d.statusTimer--
	}

	local := localButtons()
	remote := d.machine.Remote(0)
	d.currentButtons = controller.FromMask(local.Mask() | remote.Mask())

	frame, ran, err := d.machine.RunFrame([2]controller.Buttons{local, {}})
	if err != nil {
		glog.Errorf("Emulation stopped: %v", err)
		d.lastErr = err
	}
	if !ran {
		d.updateStatic()
		return nil
	}

	if d.opts.Recorder != nil {
		if err := d.opts.Recorder.Record(d.currentButtons); err != nil {
			glog.Errorf("Error recording input: %v", err)
			d.opts.Recorder = nil
		}
	}
	d.queue.Push(frame.Samples)
	if d.opts.Wav != nil {
		if err := d.opts.Wav.Write(frame.Samples); err != nil {
			glog.Errorf("Error writing audio: %v", err)
			d.opts.Wav = nil
		}
	}
	frame.Pixels.Draw(d.rgba)
	d.frameImage.WritePixels(d.rgba.Pix)
	return nil
}

// updateStatic fills the screen with noise while no cartridge is inserted.
func (d *Display) updateStatic() {
	if d.machine.Do(func(c *console.Console) error {
		if c.HasCartridge() {
			return console.ErrNoCartridge
		}
		return nil
	}) != nil {
		return
	}
	for i := 0; i < len(d.staticPix); i += 4 {
		val := byte(rand.Intn(256))
		d.staticPix[i] = val
		d.staticPix[i+1] = val
		d.staticPix[i+2] = val
		d.staticPix[i+3] = 255
	}
	d.staticImage.WritePixels(d.staticPix)
}

// Draw draws the game screen.
func (d *Display) Draw(screen *ebiten.Image) {
	screen.Fill(darkPanel)

	picture := d.frameImage
	if !d.hasCartridge() {
		picture = d.staticImage
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(d.opts.Scale), float64(d.opts.Scale))
	op.GeoM.Translate(0, menuBarHeight)
	screen.DrawImage(picture, op)
	screen.DrawImage(d.scanlineImage, op)

	d.drawMenuBar(screen)
	d.drawControllerHUD(screen)
	d.drawStatus(screen)
}

func (d *Display) hasCartridge() bool {
	return d.machine.Do(func(c *console.Console) error {
		if !c.HasCartridge() {
			return console.ErrNoCartridge
		}
		return nil
	}) == nil
}

func (d *Display) drawText(screen *ebiten.Image, s string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, d.face, op)
}

func (d *Display) drawMenuBar(screen *ebiten.Image) {
	w, _ := d.Size()
	vector.DrawFilledRect(screen, 0, 0, float32(w), menuBarHeight, chassis, false)
	vector.DrawFilledRect(screen, 0, menuBarHeight-4, float32(w), 4, darkPanel, false)

	cx, cy := ebiten.CursorPosition()
	mouseX, mouseY := float32(cx), float32(cy)
	isMouseDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	// Power LED, blinking after a reset.
	ledX, ledY := float32(30), float32(25)
	vector.DrawFilledRect(screen, ledX-10, ledY-10, 20, 20, color.RGBA{30, 30, 30, 255}, false)
	if d.resetBlinkTimer == 0 || (d.resetBlinkTimer/4)%2 == 0 {
		vector.DrawFilledCircle(screen, ledX, ledY, 8, color.RGBA{200, 0, 0, 80}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 5, color.RGBA{255, 0, 0, 180}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{255, 100, 100, 255}, false)
	} else {
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{100, 0, 0, 255}, false)
	}

	pause := pauseButton
	if d.machine.Paused() {
		pause.label = "RUN"
	}
	for _, b := range []button{powerButton, resetButton, loadButton, pause} {
		hover := b.contains(mouseX, mouseY)
		d.drawNESButton(screen, b, hover, hover && isMouseDown)
	}

	if logoX := float64(pauseButton.x + pauseButton.w + 20); int(logoX)+200 < w {
		d.drawText(screen, "NESPROJECT", logoX, 10, 2, nesRed)
	}
}

func (d *Display) drawNESButton(screen *ebiten.Image, b button, isHovered, isPressed bool) {
	baseColor := color.RGBA{70, 70, 70, 255}
	lightColor := color.RGBA{120, 120, 120, 255}
	darkColor := color.RGBA{40, 40, 40, 255}
	if isHovered {
		baseColor = color.RGBA{85, 85, 85, 255}
		lightColor = color.RGBA{140, 140, 140, 255}
	}
	if isPressed {
		lightColor, darkColor = darkColor, lightColor
	}

	vector.DrawFilledRect(screen, b.x, b.y, b.w, b.h, baseColor, false)
	const border = 4
	vector.DrawFilledRect(screen, b.x, b.y, b.w, border, lightColor, false)
	vector.DrawFilledRect(screen, b.x, b.y, border, b.h, lightColor, false)
	vector.DrawFilledRect(screen, b.x, b.y+b.h-border, b.w, border, darkColor, false)
	vector.DrawFilledRect(screen, b.x+b.w-border, b.y, border, b.h, darkColor, false)

	tw, th := text.Measure(b.label, d.face, 0)
	tx := float64(b.x) + (float64(b.w)-tw*1.5)/2
	ty := float64(b.y) + (float64(b.h)-th*1.5)/2
	if isPressed {
		tx += 2
		ty += 2
	}
	d.drawText(screen, b.label, tx, ty, 1.5, nesRed)
}

// drawControllerHUD draws a pad below the picture that lights up with the
// buttons held on port 0, local and remote.
func (d *Display) drawControllerHUD(screen *ebiten.Image) {
	sw, sh := d.Size()
	hudWidth, hudHeight := float32(300), float32(110)
	x := float32(sw)/2 - hudWidth/2
	y := float32(sh) - hudHeight - 15

	vector.DrawFilledRect(screen, x, y, hudWidth, hudHeight, color.RGBA{180, 180, 180, 255}, false)
	vector.DrawFilledRect(screen, x+20, y+hudHeight/2-10, hudWidth-40, 20, color.RGBA{30, 30, 30, 255}, false)

	dpadX, dpadY := x+55, y+55
	dpadColor := color.RGBA{20, 20, 20, 255}
	hlColor := color.RGBA{130, 130, 130, 255}
	vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 70, dpadColor, false)
	vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 70, 24, dpadColor, false)

	b := d.currentButtons
	if b[controller.ButtonUp] {
		vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 25, hlColor, false)
	}
	if b[controller.ButtonDown] {
		vector.DrawFilledRect(screen, dpadX-12, dpadY+10, 24, 25, hlColor, false)
	}
	if b[controller.ButtonLeft] {
		vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 25, 24, hlColor, false)
	}
	if b[controller.ButtonRight] {
		vector.DrawFilledRect(screen, dpadX+10, dpadY-12, 25, 24, hlColor, false)
	}

	pill := func(pressed bool) color.Color {
		if pressed {
			return hlColor
		}
		return color.RGBA{30, 30, 30, 255}
	}
	vector.DrawFilledRect(screen, x+120, y+60, 35, 12, pill(b[controller.ButtonSelect]), false)
	vector.DrawFilledRect(screen, x+170, y+60, 35, 12, pill(b[controller.ButtonStart]), false)

	round := func(pressed bool) color.Color {
		if pressed {
			return color.RGBA{255, 100, 100, 255}
		}
		return color.RGBA{200, 0, 0, 255}
	}
	vector.DrawFilledCircle(screen, x+230, y+70, 18, round(b[controller.ButtonB]), false)
	vector.DrawFilledCircle(screen, x+275, y+60, 18, round(b[controller.ButtonA]), false)
}

func (d *Display) drawStatus(screen *ebiten.Image) {
	_, sh := d.Size()
	y := float64(sh - hudHeight + 5)
	switch {
	case d.lastErr != nil:
		d.drawText(screen, d.lastErr.Error(), 8, y, 1, nesRed)
	case d.statusTimer > 0:
		d.drawText(screen, d.status, 8, y, 1, color.White)
	case d.machine.Paused():
		d.drawText(screen, "PAUSED", 8, y, 1, color.White)
	default:
		d.drawText(screen, fmt.Sprintf("%.0f FPS", ebiten.ActualFPS()), 8, y, 1, color.White)
	}
}

// Close saves battery RAM and finishes the recording and audio capture.
func (d *Display) Close() error {
	var errs []error
	if d.opts.ROMPath != "" {
		errs = append(errs, d.machine.Do(func(c *console.Console) error {
			return savefile.SaveBattery(c, savefile.BatteryPath(d.opts.ROMPath))
		}))
	}
	if d.opts.Recorder != nil {
		errs = append(errs, d.opts.Recorder.Flush())
	}
	if d.opts.Wav != nil {
		errs = append(errs, d.opts.Wav.Close())
	}
	if d.player != nil {
		errs = append(errs, d.player.Close())
	}
	return errors.Join(errs...)
}
