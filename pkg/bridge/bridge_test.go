package bridge

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/nextion.go/pkg/framework"
	"github.com/robotalks/nextion.go/pkg/nextion"
)

// panel answers get queries from replies.
type panel struct {
	lock    sync.Mutex
	rx      []byte
	written bytes.Buffer
	replies map[string][]byte
}

func newPanel() *panel {
	return &panel{replies: make(map[string][]byte)}
}

func (p *panel) Available() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.rx)
}

func (p *panel) ReadByte() (byte, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.rx) == 0 {
		return 0, nextion.ErrNoData
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, nil
}

func (p *panel) Write(data []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.written.Write(data)
	cmd := strings.TrimSuffix(string(data), nextion.Terminator)
	if strings.HasPrefix(cmd, "get ") {
		p.rx = append(p.rx, p.replies[cmd[4:]]...)
	}
	return len(data), nil
}

func (p *panel) inject(data ...byte) {
	p.lock.Lock()
	p.rx = append(p.rx, data...)
	p.lock.Unlock()
}

func (p *panel) writtenString() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.written.String()
}

type published struct {
	topic  string
	fields map[string]interface{}
}

type fakePublisher struct {
	t    *testing.T
	msgs []published
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	fields, err := DecodeFields(payload)
	require.NoError(p.t, err)
	p.msgs = append(p.msgs, published{topic: topic, fields: fields})
	return nil
}

type fakeSubscriber map[string]Handler

func (s fakeSubscriber) Subscribe(topic string, handler Handler) {
	s[topic] = handler
}

func newTestBridge(t *testing.T, polls ...Poll) (*Bridge, *panel, *fakePublisher) {
	conf := NewConfig()
	conf.NodeID = "panel"
	conf.Polls = polls
	require.NoError(t, conf.Validate())
	p := newPanel()
	nex := nextion.New(p)
	nex.Timeout = 20 * time.Millisecond
	pub := &fakePublisher{t: t}
	b := conf.NewBridge(nex, pub)
	b.Settle = 0
	return b, p, pub
}

func TestBridgePublishesEvents(t *testing.T) {
	b, p, pub := newTestBridge(t)
	loop := fx.NewLoop().Add(b)
	p.inject('#', 2, 'P', 1, '#', 2, 'T', 5, '#', 3, 'X', 0xab, 0x01)
	loop.RunOnce(context.Background())

	require.Len(t, pub.msgs, 3)
	for _, msg := range pub.msgs {
		assert.Equal(t, "panel/event", msg.topic)
	}
	assert.Equal(t, map[string]interface{}{"kind": EventPage, "page": float64(1)}, pub.msgs[0].fields)
	assert.Equal(t, map[string]interface{}{"kind": EventTrigger, "id": float64(5)}, pub.msgs[1].fields)
	assert.Equal(t, map[string]interface{}{"kind": EventRaw, "group": float64('X'), "payload": "ab01"}, pub.msgs[2].fields)
	assert.Equal(t, 1, b.Mux.CurrentPage())
	assert.Zero(t, p.Available())
}

func TestBridgeEventsPerIteration(t *testing.T) {
	b, p, pub := newTestBridge(t)
	b.MaxEvents = 1
	loop := fx.NewLoop().Add(b)
	p.inject('#', 2, 'T', 1, '#', 2, 'T', 2)
	loop.RunOnce(context.Background())
	require.Len(t, pub.msgs, 1)
	loop.RunOnce(context.Background())
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, float64(2), pub.msgs[1].fields["id"])
}

func TestBridgeAppliesMessages(t *testing.T) {
	b, p, _ := newTestBridge(t)
	loop := fx.NewLoop().Add(b)
	sub := make(fakeSubscriber)
	b.Subscribe(sub, loop)
	require.Contains(t, sub, "panel/set")
	require.Contains(t, sub, "panel/cmd")

	payload, err := EncodeSet(nextion.NumericAssign{Ref: "n0.val", Value: 30})
	require.NoError(t, err)
	sub["panel/set"]("panel/set", payload)
	payload, err = EncodeSet(nextion.RawCommand{Text: "page 1"})
	require.NoError(t, err)
	sub["panel/cmd"]("panel/cmd", payload)
	sub["panel/set"]("panel/set", []byte{0xff})
	require.Empty(t, p.writtenString())

	loop.RunOnce(context.Background())
	assert.Equal(t, "n0.val=30\xff\xff\xffpage 1\xff\xff\xff", p.writtenString())
}

func TestBridgePolls(t *testing.T) {
	b, p, pub := newTestBridge(t,
		Poll{Ref: "n0.val", Interval: time.Hour},
		Poll{Ref: "t0.txt", Kind: KindText, Interval: time.Hour},
		Poll{Ref: "n1.val", Interval: time.Hour},
	)
	p.replies["n0.val"] = []byte{nextion.NumberMarker, 0x10, 0x27, 0, 0, 0xff, 0xff, 0xff}
	p.replies["t0.txt"] = []byte("\x70hi\xff\xff\xff")
	loop := fx.NewLoop().Add(b)
	loop.RunOnce(context.Background())

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, published{"panel/value/n0.val", map[string]interface{}{"ref": "n0.val", "number": float64(10000)}}, pub.msgs[0])
	assert.Equal(t, published{"panel/value/t0.txt", map[string]interface{}{"ref": "t0.txt", "text": "hi"}}, pub.msgs[1])
	assert.Equal(t, published{"panel/value/n1.val", map[string]interface{}{"ref": "n1.val", "error": true}}, pub.msgs[2])

	loop.RunOnce(context.Background())
	assert.Len(t, pub.msgs, 3)
}

func TestBridgeFlushesOnStart(t *testing.T) {
	b, p, pub := newTestBridge(t)
	b.Settle = 10 * time.Millisecond
	loop := fx.NewLoop().Add(b)
	p.inject(0x1a, '#', 2, 'P', 1)
	loop.RunOnce(context.Background())
	assert.Empty(t, pub.msgs)
	assert.Zero(t, p.Available())

	p.inject('#', 2, 'P', 2)
	loop.RunOnce(context.Background())
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, float64(2), pub.msgs[0].fields["page"])
}
