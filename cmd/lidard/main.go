package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/lidar.go/pkg/env"
	fx "github.com/robotalks/lidar.go/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	err := fx.NewRunner(context.Background()).HandleSignals().Go(e).Wait()
	if err != nil {
		glog.Exit(err)
	}
}
