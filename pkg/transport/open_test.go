package transport

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/nextion.go/pkg/nextion"
)

// displayServer answers every "get" with a fixed numeric frame.
func displayServer() *httptest.Server {
	return httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		var pending []byte
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			pending = append(pending, buf[:n]...)
			for {
				pos := strings.Index(string(pending), nextion.Terminator)
				if pos < 0 {
					break
				}
				if strings.HasPrefix(string(pending[:pos]), "get ") {
					conn.Write([]byte{nextion.NumberMarker, 0x2a, 0, 0, 0, 0xff, 0xff, 0xff})
				}
				pending = pending[pos+len(nextion.Terminator):]
			}
		}
	}))
}

func TestOpenWebsocket(t *testing.T) {
	srv := displayServer()
	defer srv.Close()

	conf := NewConfig()
	conf.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	rw, err := conf.Open()
	require.NoError(t, err)

	stream := nextion.NewStream(rw)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx)

	n := nextion.New(stream)
	n.Timeout = time.Second
	require.Equal(t, uint32(42), n.ReadNumber("n0.val"))
}

func TestOpenErrors(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{"unknown scheme", "tcp://localhost:1234"},
		{"bad baud", "serial:///dev/null?baud=fast"},
		{"missing device", "/dev/nextion-does-not-exist"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.URL = tc.url
			rw, err := conf.Open()
			require.Error(t, err)
			require.Nil(t, rw)
		})
	}
}

var _ io.ReadWriteCloser = (*websocket.Conn)(nil)
