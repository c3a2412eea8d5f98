package main

import (
	"context"
	"flag"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/nextion.go/pkg/capture"
	"github.com/robotalks/nextion.go/pkg/cli/sh"
	"github.com/robotalks/nextion.go/pkg/nextion"
	"github.com/robotalks/nextion.go/pkg/transport"
)

//go-build: CGO_ENABLED=0

var captureFile string

func main() {
	godotenv.Load()
	transport.SetupFlags()
	flag.StringVar(&captureFile, "capture", captureFile, "Record wire traffic into this file.")
	flag.Parse()
	defer glog.Flush()

	port, err := transport.Default().Open()
	if err != nil {
		glog.Exitf("open %s: %v", transport.Default().URL, err)
	}
	stream := nextion.NewStream(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			glog.Errorf("read: %v", err)
		}
	}()

	var link nextion.Transport = stream
	if captureFile != "" {
		rec, err := capture.Create(captureFile)
		if err != nil {
			glog.Exit(err)
		}
		defer rec.Close()
		tap := capture.NewTap(stream, rec)
		defer tap.Flush()
		link = tap
		glog.V(2).Infof("capturing session %s into %s", rec.Session(), captureFile)
	}

	nex := nextion.New(link)
	nex.FlushAfter(nextion.DefaultSettleTime)
	shell := sh.New(nex)
	go shell.Listen(ctx)
	if err := shell.Run(flag.Args()...); err != nil {
		glog.Error(err)
	}
}
