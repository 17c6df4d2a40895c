package rod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/domain/entity"
	"github.com/iaamar/SoftLight-UIStateAgent/internal/infrastructure/artifacts"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.ScreenshotPort = (*Screenshotter)(nil)

type ScreenshotConfig struct {
	HighlightPadding float64
	MaxWidth         int
	Timeout          time.Duration

	// CaptureFormat is what the browser encodes; files are always saved
	// as PNG. JPEG transfers faster on large pages.
	CaptureFormat proto.PageCaptureScreenshotFormat
	Quality       int
}

func DefaultScreenshotConfig() ScreenshotConfig {
	return ScreenshotConfig{
		HighlightPadding: 300,
		MaxWidth:         1600,
		Timeout:          15 * time.Second,
		CaptureFormat:    proto.PageCaptureScreenshotFormatPng,
		Quality:          90,
	}
}

// Screenshotter captures the page, optionally cropped around the element the
// last step acted on, and writes a sidecar metadata file next to each image.
type Screenshotter struct {
	session *BrowserAdapter
	layout  artifacts.Layout
	cfg     ScreenshotConfig
	log     output.LoggerPort
}

func NewScreenshotter(session *BrowserAdapter, layout artifacts.Layout, cfg ScreenshotConfig, log output.LoggerPort) *Screenshotter {
	return &Screenshotter{session: session, layout: layout, cfg: cfg, log: log}
}

type screenshotSidecar struct {
	URL        string              `json:"url"`
	Title      string              `json:"title"`
	Timestamp  time.Time           `json:"timestamp"`
	Step       int                 `json:"step"`
	Modals     []entity.Modal      `json:"modals"`
	Viewport   entity.Viewport     `json:"viewport"`
	Cropped    bool                `json:"cropped"`
	ClipRegion *entity.BoundingBox `json:"clip_region,omitempty"`
}

func (s *Screenshotter) Capture(ctx context.Context, req entity.ScreenshotRequest) (*entity.ScreenshotRecord, error) {
	p := s.session.page.Context(ctx).Timeout(s.cfg.Timeout)
	defer p.CancelTimeout()

	var clip *entity.BoundingBox
	if req.Highlight != "" {
		clip = s.highlight(p, req.Highlight)
		defer func() { _, _ = p.Eval(unhighlightScript) }()
	}

	shot := s.request()
	if clip != nil {
		shot.Clip = &proto.PageViewport{X: clip.X, Y: clip.Y, Width: clip.Width, Height: clip.Height, Scale: 1}
		shot.CaptureBeyondViewport = true
	}

	data, err := p.Screenshot(false, shot)
	if err != nil && clip != nil {
		s.log.Debug("Cropped screenshot failed, retrying full viewport", "error", err)
		clip = nil
		data, err = p.Screenshot(false, s.request())
	}
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if s.cfg.MaxWidth > 0 && img.Bounds().Dx() > s.cfg.MaxWidth {
		img = imaging.Resize(img, s.cfg.MaxWidth, 0, imaging.Lanczos)
	}

	path := s.layout.ScreenshotPath(req.AppName, req.TaskName, req.Step)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("save screenshot: %w", err)
	}

	record := &entity.ScreenshotRecord{
		Path:         path,
		MetadataPath: s.layout.ScreenshotMetadataPath(req.AppName, req.TaskName, req.Step),
		Cropped:      clip != nil,
		Clip:         clip,
	}

	info, _ := p.Info()
	sidecar := screenshotSidecar{
		Timestamp:  time.Now(),
		Step:       req.Step,
		Modals:     req.Modals,
		Viewport:   s.viewport(p),
		Cropped:    record.Cropped,
		ClipRegion: clip,
	}
	if info != nil {
		sidecar.URL = info.URL
		sidecar.Title = info.Title
	}
	if err := artifacts.WriteJSON(record.MetadataPath, sidecar); err != nil {
		s.log.Warn("Failed to write screenshot metadata", "path", record.MetadataPath, "error", err)
	}

	return record, nil
}

func (s *Screenshotter) request() *proto.PageCaptureScreenshot {
	if s.cfg.CaptureFormat == proto.PageCaptureScreenshotFormatJpeg {
		return &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatJpeg, Quality: gson.Int(s.cfg.Quality)}
	}
	return &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
}

func (s *Screenshotter) highlight(p *rod.Page, selector string) *entity.BoundingBox {
	el, err := ParseSelector(selector).resolve(p)
	if err != nil || el == nil {
		return nil
	}
	res, err := el.Eval(highlightScript)
	if err != nil {
		return nil
	}
	var box entity.BoundingBox
	if err := json.Unmarshal([]byte(res.Value.String()), &box); err != nil || box.Width == 0 || box.Height == 0 {
		return nil
	}

	doc := s.documentSize(p)
	clip := PaddedClip(box, s.cfg.HighlightPadding, float64(doc.Width), float64(doc.Height))
	return &clip
}

func (s *Screenshotter) viewport(p *rod.Page) entity.Viewport {
	var v entity.Viewport
	if res, err := p.Eval(viewportScript); err == nil {
		_ = json.Unmarshal([]byte(res.Value.String()), &v)
	}
	return v
}

func (s *Screenshotter) documentSize(p *rod.Page) entity.Viewport {
	var v entity.Viewport
	if res, err := p.Eval(documentSizeScript); err == nil {
		_ = json.Unmarshal([]byte(res.Value.String()), &v)
	}
	return v
}

// PaddedClip grows box by pad on every side and clamps it to the document.
// A zero document size disables clamping on that axis.
func PaddedClip(box entity.BoundingBox, pad, docWidth, docHeight float64) entity.BoundingBox {
	x := math.Max(0, box.X-pad)
	y := math.Max(0, box.Y-pad)
	right := box.X + box.Width + pad
	bottom := box.Y + box.Height + pad
	if docWidth > 0 {
		right = math.Min(right, docWidth)
	}
	if docHeight > 0 {
		bottom = math.Min(bottom, docHeight)
	}
	return entity.BoundingBox{X: x, Y: y, Width: math.Max(0, right-x), Height: math.Max(0, bottom-y)}
}
