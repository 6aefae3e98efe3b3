package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/ekefan/afitlms-edgeserver/pkg/env"
	fx "github.com/ekefan/afitlms-edgeserver/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustLoad(flag.CommandLine).MustNewEnv()
	glog.Infof("device %s serving %s with %s reader", e.Config.DeviceID, e.Config.SerialDevice, e.Config.Reader)

	err := fx.NewRunner().HandleSignals().Go(e.Runnables()...).Wait()
	if err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
