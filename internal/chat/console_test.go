package chat_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/chat"
)

func TestConsoleChannel_ReadsLinesInOrder(t *testing.T) {
	in := strings.NewReader("login\r\nalice\nsecret1\n")
	ch := chat.NewConsoleChannel(in, &bytes.Buffer{}, 40)

	var got []string
	if err := ch.Start(context.Background(), func(msg chat.InboundMessage) {
		if msg.Channel != chat.ConsoleName {
			t.Errorf("Channel = %q, want %q", msg.Channel, chat.ConsoleName)
		}
		got = append(got, msg.Text)
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("console did not finish reading input")
	}

	want := []string{"login", "alice", "secret1"}
	if len(got) != len(want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConsoleChannel_SendMessageWraps(t *testing.T) {
	var out bytes.Buffer
	ch := chat.NewConsoleChannel(strings.NewReader(""), &out, 10)

	err := ch.SendMessage(context.Background(), chat.ConsoleName, chat.OutboundMessage{
		Text: "one two three four",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got, want := out.String(), "one two\nthree four\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleChannel_Stop(t *testing.T) {
	ch := chat.NewConsoleChannel(strings.NewReader(""), &bytes.Buffer{}, 0)
	if err := ch.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := ch.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
