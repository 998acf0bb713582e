package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fekuna/omnipos-pos-terminal/internal/capture"
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/pos"
	"github.com/fekuna/omnipos-pos-terminal/internal/replication"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
)

// Scanner is the part of capture.Engine the console drives.
type Scanner interface {
	Start(ctx context.Context, deviceID string) error
	Stop() error
	SetDevice(ctx context.Context, deviceID string) error
	Mode() capture.Mode
	Active() bool
	DeviceID() string
}

type StatusSource interface {
	Status(ctx context.Context) (replication.Status, error)
}

var errQuit = errors.New("quit")

const helpText = `commands:
  <code> | scan <code>   add a product by barcode
  inc <id> | dec <id>    change a line's quantity by one
  qty <id> <delta>       change a line's quantity (never below 1)
  rm <id>                remove a line
  clear                  empty the cart
  cart                   show the cart
  pay cash|card          check out
  last                   show the last scan
  camera [device]        start the camera or switch device
  camera off             release the camera
  status                 show sync status
  quit
`

// ConsoleHandler is the operator's line-oriented terminal UI. Typed codes go
// through the same scan path as camera reads, without debouncing.
type ConsoleHandler struct {
	uc      pos.UseCase
	scanner Scanner
	status  StatusSource
	out     io.Writer
	logger  logger.ZapLogger
}

func NewConsoleHandler(uc pos.UseCase, scanner Scanner, status StatusSource, out io.Writer, log logger.ZapLogger) *ConsoleHandler {
	return &ConsoleHandler{
		uc:      uc,
		scanner: scanner,
		status:  status,
		out:     out,
		logger:  log,
	}
}

// Run reads commands until EOF, quit, or ctx is done.
func (h *ConsoleHandler) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(h.out, "> ")
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := h.Exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(h.out, "error: %v\n", err)
		}
		fmt.Fprint(h.out, "> ")
	}
	return sc.Err()
}

// Exec runs one command line.
func (h *ConsoleHandler) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprint(h.out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "scan":
		if len(args) != 1 {
			return errors.New("usage: scan <code>")
		}
		return h.scan(ctx, args[0])
	case "inc", "dec":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>", cmd)
		}
		delta := int64(1)
		if cmd == "dec" {
			delta = -1
		}
		return h.adjust(ctx, args[0], delta)
	case "qty":
		if len(args) != 2 {
			return errors.New("usage: qty <id> <delta>")
		}
		delta, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad delta %q", args[1])
		}
		return h.adjust(ctx, args[0], delta)
	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <id>")
		}
		if err := h.uc.Remove(ctx, args[0]); err != nil {
			return err
		}
		h.printCart()
		return nil
	case "clear":
		h.uc.Clear(ctx)
		fmt.Fprintln(h.out, "cart cleared")
		return nil
	case "cart":
		h.printCart()
		return nil
	case "pay":
		if len(args) != 1 {
			return errors.New("usage: pay cash|card")
		}
		return h.pay(ctx, model.PaymentMethod(strings.ToLower(args[0])))
	case "last":
		h.printLast()
		return nil
	case "camera":
		return h.camera(ctx, args)
	case "status":
		return h.printStatus(ctx)
	}

	// Anything else that looks like a code is a manual scan.
	if len(fields) == 1 && isCode(cmd) {
		return h.scan(ctx, fields[0])
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func isCode(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return s != ""
}

func (h *ConsoleHandler) scan(ctx context.Context, code string) error {
	res, err := h.uc.HandleScan(ctx, code)
	if err != nil {
		return err
	}
	if !res.Found {
		fmt.Fprintf(h.out, "not found: %s\n", res.Code)
		return nil
	}
	fmt.Fprintf(h.out, "+ %s x%d  (total %s)\n", res.Product.Name, res.Quantity, h.uc.Total().StringFixed(2))
	return nil
}

func (h *ConsoleHandler) adjust(ctx context.Context, id string, delta int64) error {
	if _, err := h.uc.AdjustQuantity(ctx, id, delta); err != nil {
		return err
	}
	h.printCart()
	return nil
}

func (h *ConsoleHandler) pay(ctx context.Context, method model.PaymentMethod) error {
	ord, err := h.uc.Checkout(ctx, method)
	if err != nil {
		return err
	}
	if ord == nil {
		fmt.Fprintln(h.out, "cart is empty")
		return nil
	}
	fmt.Fprintf(h.out, "order %s paid by %s: %s\n", ord.ID, ord.PaymentMethod, ord.Total.StringFixed(2))
	return nil
}

func (h *ConsoleHandler) camera(ctx context.Context, args []string) error {
	if h.scanner == nil {
		return errors.New("no camera configured")
	}
	switch {
	case len(args) == 1 && args[0] == "off":
		return h.scanner.Stop()
	case len(args) == 0 && !h.scanner.Active():
		if err := h.scanner.Start(ctx, h.scanner.DeviceID()); err != nil {
			return err
		}
	case len(args) == 1 && !h.scanner.Active():
		if err := h.scanner.Start(ctx, args[0]); err != nil {
			return err
		}
	case len(args) == 1:
		if err := h.scanner.SetDevice(ctx, args[0]); err != nil {
			return err
		}
	}

	device := h.scanner.DeviceID()
	if device == "" {
		device = capture.FacingEnvironment
	}
	fmt.Fprintf(h.out, "camera %s: mode=%s\n", device, h.scanner.Mode())
	return nil
}

func (h *ConsoleHandler) printCart() {
	items := h.uc.Items()
	if len(items) == 0 {
		fmt.Fprintln(h.out, "cart is empty")
		return
	}
	w := tabwriter.NewWriter(h.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "id\tname\tqty\tprice\tline\t")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n",
			it.Product.ID, it.Product.Name, it.Quantity,
			it.Product.Price.StringFixed(2), it.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%d\t\t%s\t\n", h.uc.Count(), h.uc.Total().StringFixed(2))
	if err := w.Flush(); err != nil {
		h.logger.Warn("console write failed", zap.Error(err))
	}
}

func (h *ConsoleHandler) printLast() {
	last := h.uc.LastScan()
	if last == nil {
		fmt.Fprintln(h.out, "no scans yet")
		return
	}
	if last.Found {
		fmt.Fprintf(h.out, "%s  %s  %s\n", last.At.Format("15:04:05"), last.Code, last.ProductName)
		return
	}
	fmt.Fprintf(h.out, "%s  %s  (not in catalog)\n", last.At.Format("15:04:05"), last.Code)
}

func (h *ConsoleHandler) printStatus(ctx context.Context) error {
	if h.status == nil {
		return errors.New("replication disabled")
	}
	st, err := h.status.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range []replication.StreamStatus{st.Pull, st.Push} {
		state := "ok"
		if s.Stale() {
			state = fmt.Sprintf("retrying (%d): %s", s.Failures, s.LastError)
		}
		fmt.Fprintf(h.out, "%-16s checkpoint=%s %s\n", s.Stream, s.Checkpoint.Format("2006-01-02T15:04:05Z07:00"), state)
	}
	fmt.Fprintf(h.out, "pending orders: %d\n", st.PendingOrders)
	return nil
}
