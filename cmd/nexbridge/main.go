package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/nextion.go/pkg/bridge"
	fx "github.com/robotalks/nextion.go/pkg/framework"
	"github.com/robotalks/nextion.go/pkg/nextion"
	"github.com/robotalks/nextion.go/pkg/transport"
)

//go-build: CGO_ENABLED=0

func main() {
	godotenv.Load()
	transport.SetupFlags()
	bridge.SetupFlags()
	flag.Parse()
	defer glog.Flush()

	conf := bridge.NewConfig()
	if err := conf.Load(); err != nil {
		glog.Exitf("config: %v", err)
	}
	if err := conf.Validate(); err != nil {
		glog.Exitf("config: %v", err)
	}
	queue, err := bridge.NewQueueFromURL(conf.MQTTBrokerURL)
	if err != nil {
		glog.Exitf("mqtt: %v", err)
	}
	port, err := transport.Default().Open()
	if err != nil {
		glog.Exitf("open %s: %v", transport.Default().URL, err)
	}
	stream := nextion.NewStream(port)
	nex := nextion.New(stream)

	loop := fx.NewLoop()
	loop.Interval = conf.LoopInterval
	b := conf.NewBridge(nex, queue)
	b.Subscribe(queue, loop)
	loop.AddRunnable(fx.NamedRun("display", stream), fx.NamedRun("mqtt", queue)).Add(b)
	glog.Infof("bridging %s as node %q", transport.Default().URL, conf.NodeID)
	loop.RunOrFail(fx.NewRunner().HandleSignals().Context)
}
