// Package eventstream pushes registry change events to a UI gateway over
// socket.io. It is an optional component: the application only starts it when
// a gateway URL is configured.
package eventstream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/events"
)

// EmitEvent is the socket.io event name every registry change is emitted as.
const EmitEvent = "thing_registry"

// Config holds the gateway connection settings.
type Config struct {
	URL                string
	Namespace          string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// Bridge owns one socket.io connection and the goroutine forwarding bus
// events into it.
type Bridge struct {
	io *socket.Socket
	wg sync.WaitGroup
}

// Connect dials the gateway and starts forwarding events from the bus. It
// blocks until the connection is established or the timeout elapses. The
// forwarding goroutine runs until the bus is closed; call Close afterwards to
// drop the connection.
func Connect(ctx context.Context, cfg Config, bus *events.Bus) (*Bridge, error) {
	logger := ctxlog.FromContext(ctx).With("component", "eventstream", "url", cfg.URL)
	logger.Debug("Connecting to event gateway")

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to event gateway", "namespace", cfg.Namespace, "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		select {
		case connected <- err:
		default:
		}
	})

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	io.Connect()

	select {
	case <-opCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out while waiting for gateway connection")
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("gateway connection failed: %w", err)
		}
	}

	b := &Bridge{io: io}
	sub := bus.Subscribe(64)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range sub {
			logger.Debug("Emitting registry event", "type", ev.Type, "uid", ev.UID)
			io.Emit(EmitEvent, map[string]any{
				"type":    string(ev.Type),
				"binding": ev.BindingID,
				"uid":     ev.UID,
			})
		}
	}()

	return b, nil
}

// Close waits for the forwarding goroutine to drain (it stops when the bus is
// closed) and disconnects from the gateway.
func (b *Bridge) Close() {
	b.wg.Wait()
	b.io.Disconnect()
}
