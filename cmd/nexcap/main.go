package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/nextion.go/pkg/capture"
)

func main() {
	godotenv.Load()
	flag.Parse()
	defer glog.Flush()
	if flag.NArg() == 0 {
		glog.Exit("capture file expected")
	}
	for _, fn := range flag.Args() {
		if err := dump(fn); err != nil {
			glog.Exitf("%s: %v", fn, err)
		}
	}
}

func dump(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := capture.ReadAll(f)
	if err != nil {
		return err
	}
	var session string
	for _, rec := range records {
		if rec.Session != session {
			session = rec.Session
			fmt.Printf("# session %s\n", session)
		}
		fmt.Printf("%s %-3s % x\n", rec.Timestamp.Format(time.RFC3339Nano), rec.Direction, rec.Data)
	}
	return nil
}
