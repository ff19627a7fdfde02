package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/testutil"
	"github.com/banshee-data/wearable.report/internal/timeutil"
)

// mockPort reads from r and records writes.
type mockPort struct {
	io.Reader
	written bytes.Buffer
}

func (m *mockPort) Write(p []byte) (int, error) { return m.written.Write(p) }

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) {})
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{"defaults", PortOptions{}, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}, false},
		{"explicit", PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}, PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}, false},
		{"odd lowercase", PortOptions{Parity: " o "}, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "O"}, false},
		{"bad data bits", PortOptions{DataBits: 9}, PortOptions{}, true},
		{"bad stop bits", PortOptions{StopBits: 3}, PortOptions{}, true},
		{"bad parity", PortOptions{Parity: "mark"}, PortOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.OddParity, mode.Parity)

	_, err = PortOptions{Parity: "x"}.SerialMode()
	assert.Error(t, err)
}

func TestCaptureCopiesLines(t *testing.T) {
	input := strings.Join([]string{
		testutil.Line(5, 1, nil, 0, 100),
		"",
		"  " + testutil.Line(9, 2, nil, 0, 100) + "  ",
		testutil.HRLine(3, 70, 3, 1, 100),
		"garbage",
	}, "\r\n")
	port := &mockPort{Reader: strings.NewReader(input)}
	var out bytes.Buffer

	stats, err := Capture(context.Background(), port, &out, Options{Commands: []string{" start "}})
	require.NoError(t, err)

	assert.Equal(t, "start\n", port.written.String())
	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 1, stats.Unknown)
	assert.Equal(t, 1, stats.PerChannel[telemetry.ECG])
	assert.Equal(t, 1, stats.PerChannel[telemetry.PPG125])
	assert.Equal(t, 1, stats.PerChannel[telemetry.HR])

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, testutil.Line(9, 2, nil, 0, 100), lines[1])
	assert.Equal(t, "garbage", lines[3])
}

func TestCaptureMaxLines(t *testing.T) {
	input := strings.Join(testutil.Batches(12, 1, 10, 5, nil, 100), "\n")
	var out bytes.Buffer
	stats, err := Capture(context.Background(), &mockPort{Reader: strings.NewReader(input)}, &out, Options{MaxLines: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestCaptureCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_, _ = io.WriteString(w, testutil.Line(0, 1, nil, 0, 100)+"\n")
		cancel()
	}()

	var out bytes.Buffer
	_, err := Capture(ctx, &mockPort{Reader: r}, &out, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCaptureDuration(t *testing.T) {
	quiet(t)
	r, w := io.Pipe()
	defer w.Close()
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	done := make(chan error, 1)
	go func() {
		_, err := Capture(context.Background(), &mockPort{Reader: r}, io.Discard, Options{MaxDuration: time.Minute, Clock: clock})
		done <- err
	}()

	_, _ = io.WriteString(w, testutil.Line(0, 1, nil, 0, 100)+"\n")
	clock.Advance(time.Minute)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("capture did not stop at the duration limit")
	}
}

func TestCaptureReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	_, err := Capture(context.Background(), &mockPort{Reader: errReader{boom}}, io.Discard, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestSendCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendCommand(&buf, "stream on\n"))
	assert.Equal(t, "stream on\n", buf.String())
}
