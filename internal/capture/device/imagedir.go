// Package device provides camera implementations for the capture engine.
package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/capture"
)

var (
	ErrDeviceNotFound   = errors.New("camera device not found")
	ErrNoFrames         = errors.New("camera device has no frames")
	ErrTorchUnsupported = errors.New("torch not supported")
)

// ImageDir is a camera backed by a directory of still images. Each
// subdirectory is a device; a subdirectory named "environment" (or the root
// itself) serves requests without a device id. Frames loop until Stop. A
// device exposes a torch when it contains a file named "torch".
type ImageDir struct {
	Root     string
	Interval time.Duration
}

func NewImageDir(root string, interval time.Duration) *ImageDir {
	return &ImageDir{Root: root, Interval: interval}
}

// Devices lists the device ids available under Root.
func (c *ImageDir) Devices() ([]string, error) {
	entries, err := os.ReadDir(c.Root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (c *ImageDir) Open(ctx context.Context, cons capture.Constraints) (capture.Stream, error) {
	dir, err := c.resolve(cons)
	if err != nil {
		return nil, err
	}

	frames, err := loadFrames(ctx, dir)
	if err != nil {
		return nil, err
	}

	interval := c.Interval
	if interval <= 0 {
		fps := cons.FrameRate.Ideal
		if fps <= 0 {
			fps = 30
		}
		interval = time.Second / time.Duration(fps)
	}

	_, torchErr := os.Stat(filepath.Join(dir, "torch"))

	s := &imageStream{
		frames:   frames,
		interval: interval,
		out:      make(chan image.Image),
		stop:     make(chan struct{}),
		torch:    torchErr == nil,
	}
	go s.run()
	return s, nil
}

func (c *ImageDir) resolve(cons capture.Constraints) (string, error) {
	if cons.DeviceID != "" {
		dir := filepath.Join(c.Root, filepath.Base(cons.DeviceID))
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, cons.DeviceID)
		}
		return dir, nil
	}
	if cons.FacingMode != "" {
		dir := filepath.Join(c.Root, cons.FacingMode)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	if fi, err := os.Stat(c.Root); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, c.Root)
	}
	return c.Root, nil
}

func loadFrames(ctx context.Context, dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("decode frame %s: %w", name, err)
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}
	return frames, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

type imageStream struct {
	frames   []image.Image
	interval time.Duration
	out      chan image.Image
	stop     chan struct{}
	stopOnce sync.Once
	torch    bool

	mu      sync.Mutex
	torchOn bool
}

func (s *imageStream) run() {
	defer close(s.out)
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for i := 0; ; i = (i + 1) % len(s.frames) {
		select {
		case <-s.stop:
			return
		case <-t.C:
		}
		// A slow consumer misses frames, like a live sensor.
		select {
		case s.out <- s.frames[i]:
		case <-s.stop:
			return
		default:
		}
	}
}

func (s *imageStream) Frames() <-chan image.Image {
	return s.out
}

func (s *imageStream) Capabilities() capture.Capabilities {
	return capture.Capabilities{Torch: s.torch}
}

func (s *imageStream) SetTorch(on bool) error {
	if !s.torch {
		return ErrTorchUnsupported
	}
	s.mu.Lock()
	s.torchOn = on
	s.mu.Unlock()
	return nil
}

func (s *imageStream) TorchOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.torchOn
}

func (s *imageStream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.mu.Lock()
		s.torchOn = false
		s.mu.Unlock()
	})
	return nil
}
