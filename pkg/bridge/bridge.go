// Package bridge connects a display to MQTT: event frames and polled
// attribute values are published, assignments and commands received
// from MQTT are sent to the display.
package bridge

import (
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/nextion.go/pkg/framework"
	"github.com/robotalks/nextion.go/pkg/nextion"
	"github.com/robotalks/nextion.go/pkg/nextion/trigger"
)

// Topics relative to the queue prefix.
type Topics struct {
	Event string
	Value string
	Set   string
	Cmd   string
}

// TopicsFor returns the topics of a node.
func TopicsFor(node string) Topics {
	return Topics{
		Event: node + "/event",
		Value: node + "/value/",
		Set:   node + "/set",
		Cmd:   node + "/cmd",
	}
}

type pollState struct {
	Poll
	next time.Time
}

// Bridge is a loop controller owning the display.
type Bridge struct {
	Nex       *nextion.Nex
	Mux       *trigger.Mux
	Pub       Publisher
	Topics    Topics
	MaxEvents int
	// Settle is waited before the startup flush, zero disables it.
	Settle time.Duration

	polls   []*pollState
	started bool
}

// NewBridge creates a Bridge and routes the display's events to it.
func (c *Config) NewBridge(nex *nextion.Nex, pub Publisher) *Bridge {
	b := &Bridge{
		Nex:       nex,
		Mux:       trigger.NewMux(),
		Pub:       pub,
		Topics:    TopicsFor(c.NodeID),
		MaxEvents: c.MaxEvents,
	}
	if c.FlushOnStart {
		b.Settle = nextion.DefaultSettleTime
	}
	for _, p := range c.Polls {
		b.polls = append(b.polls, &pollState{Poll: p})
	}
	b.Mux.OnPage(b.publishPage)
	b.Mux.OnAnyTrigger(b.publishTrigger)
	b.Mux.Default = nextion.RouteFunc(b.publishRaw)
	nex.Router = b.Mux
	return b
}

// Subscribe receives assignments and commands. Decoded commands are
// posted to loop so only the loop goroutine writes to the display.
func (b *Bridge) Subscribe(sub Subscriber, loop *fx.Loop) {
	sub.Subscribe(b.Topics.Set, func(topic string, payload []byte) {
		cmd, err := DecodeSet(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		loop.PostMessage(cmd)
	})
	sub.Subscribe(b.Topics.Cmd, func(topic string, payload []byte) {
		cmd, err := DecodeCmd(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		loop.PostMessage(cmd)
	})
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddController(b)
}

// Control implements Controller.
func (b *Bridge) Control(cc fx.ControlContext) error {
	if !b.started {
		b.started = true
		if b.Settle > 0 {
			if count := b.Nex.FlushAfter(b.Settle); count > 0 {
				glog.Infof("discarded %d bytes at startup", count)
			}
		}
	}
	maxEvents := b.MaxEvents
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	for i := 0; i < maxEvents && b.Nex.Listen(); i++ {
	}
	for _, msg := range cc.Messages() {
		if cmd, ok := msg.(nextion.Command); ok {
			b.Nex.Send(cmd)
		}
	}
	now := cc.Time()
	for _, p := range b.polls {
		if now.Before(p.next) {
			continue
		}
		p.next = now.Add(p.Interval)
		b.publishValue(b.read(p.Poll))
	}
	return nil
}

func (b *Bridge) read(p Poll) Value {
	v := Value{Ref: p.Ref, IsText: p.Kind == KindText}
	if v.IsText {
		v.Text = b.Nex.ReadStr(p.Ref)
		v.Failed = v.Text == nextion.ErrorText
	} else {
		v.Number = b.Nex.ReadNumber(p.Ref)
		v.Failed = v.Number == nextion.ErrorNumber
	}
	return v
}

func (b *Bridge) publishValue(v Value) {
	payload, err := EncodeValue(v)
	if err == nil {
		err = b.Pub.Publish(b.Topics.Value+v.Ref, payload)
	}
	if err != nil {
		glog.Warningf("publish value %q: %v", v.Ref, err)
	}
}

func (b *Bridge) publishPage(page byte) {
	b.publishEvent(EncodePage(page))
}

func (b *Bridge) publishTrigger(id byte) {
	b.publishEvent(EncodeTrigger(id))
}

func (b *Bridge) publishRaw(group byte, remaining int, src io.ByteReader) {
	payload := make([]byte, 0, remaining)
	for i := 0; i < remaining; i++ {
		c, err := src.ReadByte()
		if err != nil {
			break
		}
		payload = append(payload, c)
	}
	b.publishEvent(EncodeRaw(group, payload))
}

func (b *Bridge) publishEvent(payload []byte, err error) {
	if err == nil {
		err = b.Pub.Publish(b.Topics.Event, payload)
	}
	if err != nil {
		glog.Warningf("publish event: %v", err)
	}
}
