// Package websocket reaches a display exposed on the network by a
// serial-to-websocket bridge. Each message carries raw serial bytes.
package websocket

import (
	"io"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Dial connects to url and returns a binary byte stream.
func Dial(url, origin string) (io.ReadWriteCloser, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	glog.V(2).Infof("connected %s", url)
	return conn, nil
}
