package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
)

const DefaultRestartDelay = 300 * time.Millisecond

// ScanHandler is the single consumer of debounced codes.
type ScanHandler func(ctx context.Context, code string)

type Options struct {
	Camera Camera
	// NativeDetector is nil when the platform offers no detector.
	NativeDetector DetectorFactory
	// Fallback defaults to the ZXing decoder at DefaultFallbackFPS.
	Fallback         StrategyFactory
	Formats          []Format
	DebounceInterval time.Duration
	RestartDelay     time.Duration
	Now              func() time.Time
}

type session struct {
	deviceID string
	stream   Stream
	strategy Strategy
	cancel   context.CancelFunc
	done     chan struct{}
	busy     atomic.Bool
	// inflight covers a decode and the handler call it leads to.
	inflight sync.WaitGroup

	releaseOnce sync.Once
	releaseErr  error
}

// release stops the stream and waits for in-flight work. Safe to call from
// both Stop and the pump after the stream ends.
func (s *session) release() error {
	s.releaseOnce.Do(func() {
		s.cancel()
		err := s.stream.Stop()
		<-s.done
		s.inflight.Wait()
		s.releaseErr = errors.Join(err, s.strategy.Close())
	})
	return s.releaseErr
}

// Engine owns the camera between Start and Stop, runs the frame pump and
// forwards debounced codes to its handler.
type Engine struct {
	opts    Options
	handler ScanHandler
	logger  logger.ZapLogger

	// opMu serializes Start, Stop and SetDevice.
	opMu sync.Mutex

	mu       sync.Mutex
	sess     *session
	deviceID string
	debounce *Debouncer
}

func NewEngine(opts Options, handler ScanHandler, log logger.ZapLogger) *Engine {
	if opts.Fallback == nil {
		opts.Fallback = NewZXingStrategy(DefaultFallbackFPS)
	}
	if len(opts.Formats) == 0 {
		opts.Formats = DefaultFormats
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = DefaultRestartDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		opts:     opts,
		handler:  handler,
		logger:   log,
		debounce: NewDebouncer(opts.DebounceInterval),
	}
}

// Start acquires the camera (deviceID, or the environment-facing camera when
// empty) and begins decoding. The platform detector is tried first; if it is
// missing or fails to initialize, the software decoder is used instead. Only
// when both fail is a *StartError wrapping ErrCaptureUnavailable returned.
func (e *Engine) Start(ctx context.Context, deviceID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.startLocked(ctx, deviceID)
}

// Stop releases the camera and discards any decode still in flight. It
// returns only after a handler call already under way has finished, so the
// handler must not call back into Start, Stop or SetDevice. It is a no-op
// when the engine is not running.
func (e *Engine) Stop() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.stopLocked()
}

// SetDevice switches to another camera. A running engine is fully stopped,
// given RestartDelay to let the old device settle, and started again; camera
// handles are never reconfigured in place.
func (e *Engine) SetDevice(ctx context.Context, deviceID string) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	active := e.sess != nil
	changed := e.deviceID != deviceID
	e.deviceID = deviceID
	e.mu.Unlock()

	if !changed || !active {
		return nil
	}

	if err := e.stopLocked(); err != nil {
		e.logger.Warn("camera release reported an error", zap.Error(err))
	}

	t := time.NewTimer(e.opts.RestartDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return e.startLocked(ctx, deviceID)
}

// Mode reports the active strategy, or "" when stopped.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ""
	}
	return e.sess.strategy.Mode()
}

func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil
}

func (e *Engine) DeviceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceID
}

func (e *Engine) startLocked(ctx context.Context, deviceID string) error {
	if err := e.stopLocked(); err != nil {
		e.logger.Warn("camera release reported an error", zap.Error(err))
	}

	startErr := &StartError{DeviceID: deviceID}

	if e.opts.NativeDetector == nil {
		startErr.Native = ErrNativeUnavailable
	} else {
		s, err := e.open(ctx, deviceID, func() (Strategy, error) {
			return NewNativeStrategy(e.opts.NativeDetector, e.opts.Formats)
		})
		if err == nil {
			e.install(ctx, s)
			return nil
		}
		startErr.Native = err
		e.logger.Warn("native detector failed, falling back", zap.String("device", deviceID), zap.Error(err))
	}

	s, err := e.open(ctx, deviceID, func() (Strategy, error) {
		return e.opts.Fallback(e.opts.Formats)
	})
	if err == nil {
		e.install(ctx, s)
		return nil
	}
	startErr.Fallback = err

	e.logger.Error("camera unavailable", zap.String("device", deviceID), zap.Error(startErr))
	return startErr
}

func (e *Engine) open(ctx context.Context, deviceID string, build func() (Strategy, error)) (*session, error) {
	if e.opts.Camera == nil {
		return nil, errors.New("no camera configured")
	}
	stream, err := e.opts.Camera.Open(ctx, DefaultConstraints(deviceID))
	if err != nil {
		return nil, fmt.Errorf("acquire camera: %w", err)
	}

	e.enableTorch(stream)

	strategy, err := build()
	if err != nil {
		_ = stream.Stop()
		return nil, fmt.Errorf("init decoder: %w", err)
	}

	return &session{
		deviceID: deviceID,
		stream:   stream,
		strategy: strategy,
		done:     make(chan struct{}),
	}, nil
}

// enableTorch turns on the illumination aid when the track supports it.
func (e *Engine) enableTorch(stream Stream) {
	if !stream.Capabilities().Torch {
		return
	}
	if err := stream.SetTorch(true); err != nil {
		e.logger.Debug("torch not enabled", zap.Error(err))
	}
}

func (e *Engine) install(ctx context.Context, s *session) {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	e.mu.Lock()
	e.sess = s
	e.deviceID = s.deviceID
	e.debounce.Reset()
	e.mu.Unlock()

	e.logger.Info("scanner started", zap.String("mode", string(s.strategy.Mode())), zap.String("device", s.deviceID))
	go e.pump(loopCtx, s)
}

func (e *Engine) stopLocked() error {
	e.mu.Lock()
	s := e.sess
	e.sess = nil
	e.debounce.Reset()
	e.mu.Unlock()

	if s == nil {
		return nil
	}

	err := s.release()
	e.logger.Info("scanner stopped", zap.String("device", s.deviceID))
	return err
}

// detach drops s as the active session after its stream ended on its own,
// so Active reports false and a later Start can reacquire the device.
func (e *Engine) detach(s *session) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != s {
		return false
	}
	e.sess = nil
	e.debounce.Reset()
	return true
}

// pump admits at most one frame into decode at a time. Frames arriving while
// a decode is running are dropped, not queued.
func (e *Engine) pump(ctx context.Context, s *session) {
	ended := false
	defer func() {
		close(s.done)
		if ended && e.detach(s) {
			if err := s.release(); err != nil {
				e.logger.Debug("camera release reported an error", zap.Error(err))
			}
		}
	}()

	frames := s.stream.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				e.logger.Warn("camera stream ended", zap.String("device", s.deviceID))
				ended = true
				return
			}
			if frame == nil || !s.busy.CompareAndSwap(false, true) {
				continue
			}
			if !s.strategy.Admit() {
				s.busy.Store(false)
				continue
			}
			s.inflight.Add(1)
			go e.analyze(ctx, s, frame)
		}
	}
}

func (e *Engine) analyze(ctx context.Context, s *session, frame image.Image) {
	defer s.inflight.Done()

	code, err := e.detect(ctx, s, frame)
	s.busy.Store(false)

	if err != nil {
		e.logger.Debug("frame decode failed", zap.Error(err))
		return
	}
	if code == "" {
		return
	}
	e.forward(ctx, s, code)
}

func (e *Engine) detect(ctx context.Context, s *session, frame image.Image) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return s.strategy.Detect(ctx, CropCenter(frame, s.strategy.Region()))
}

func (e *Engine) forward(ctx context.Context, s *session, code string) {
	e.mu.Lock()
	if e.sess != s {
		e.mu.Unlock()
		return
	}
	allowed := e.debounce.Allow(code, e.opts.Now())
	e.mu.Unlock()

	if allowed && e.handler != nil {
		e.handler(ctx, code)
	}
}
