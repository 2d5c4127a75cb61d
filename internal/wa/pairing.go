package wa

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/pvictorino/zapgate/internal/bus"
	"github.com/pvictorino/zapgate/internal/status"
)

// QRCodeUpdate is the payload of a qrcode.updated event. Base64 holds a
// PNG rendering of the pairing code.
type QRCodeUpdate struct {
	Code   string `json:"code"`
	Base64 string `json:"base64"`
}

// Pair runs the QR pairing flow: it connects, publishes each fresh
// pairing code, and returns once the phone scans or the codes expire.
// Must be called before the client has credentials.
func (a *Adapter) Pair(ctx context.Context, machine *status.Machine) error {
	if a.IsLoggedIn() {
		return fmt.Errorf("already logged in")
	}

	qrChan, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get QR channel: %w", err)
	}
	if err := a.client.Connect(); err != nil {
		return fmt.Errorf("connect for pairing: %w", err)
	}

	for item := range qrChan {
		switch item.Event {
		case "code":
			_ = machine.Transition(status.QRCode)
			a.publishQRCode(item.Code)
		case "success":
			a.log.Info("pairing complete", zap.String("instance", a.name))
			_ = machine.Transition(status.Connecting)
			return nil
		default:
			_ = machine.Transition(status.Close)
			if item.Error != nil {
				return fmt.Errorf("pairing failed: %w", item.Error)
			}
			return fmt.Errorf("pairing ended: %s", item.Event)
		}
	}
	return fmt.Errorf("pairing channel closed")
}

func (a *Adapter) publishQRCode(code string) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		a.log.Error("qr code render failed", zap.Error(err))
		return
	}
	a.bus.Emit(bus.KindQRCodeUpdated, a.name, QRCodeUpdate{
		Code:   code,
		Base64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}
