package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ConsoleName is the channel name of the console front end.
const ConsoleName = "console"

const defaultWrapWidth = 72

// ConsoleChannel reads input lines from a reader and writes wrapped text to
// a writer. Lines are handled one at a time in arrival order.
type ConsoleChannel struct {
	in    io.Reader
	out   io.Writer
	width int

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
	stop     chan struct{}
}

// NewConsoleChannel creates a console channel. width <= 0 uses 72 columns.
func NewConsoleChannel(in io.Reader, out io.Writer, width int) *ConsoleChannel {
	if width <= 0 {
		width = defaultWrapWidth
	}
	return &ConsoleChannel{
		in:    in,
		out:   out,
		width: width,
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}
}

func (c *ConsoleChannel) SendMessage(_ context.Context, _ string, msg OutboundMessage) error {
	lines := WrapText(msg.Text, c.width)
	if len(lines) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.out, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	return nil
}

// Start reads lines until EOF, Stop or ctx cancellation.
func (c *ConsoleChannel) Start(ctx context.Context, handler func(InboundMessage)) error {
	go c.readLoop(ctx, handler)
	return nil
}

// Done is closed when the input is exhausted or the channel stops.
func (c *ConsoleChannel) Done() <-chan struct{} {
	return c.done
}

func (c *ConsoleChannel) Stop() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *ConsoleChannel) readLoop(ctx context.Context, handler func(InboundMessage)) {
	defer close(c.done)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		default:
		}
		handler(InboundMessage{
			Channel: ConsoleName,
			UserID:  ConsoleName,
			Text:    strings.TrimRight(scanner.Text(), "\r"),
		})
	}
	if err := scanner.Err(); err != nil {
		slog.Error("console read failed", "error", err)
	}
}
