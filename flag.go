package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf          bool
	configPath  string
	logLevel    string
	rootFlag    string
	maxZoomFlag = -1
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&configPath, "c", "./conf/conf.toml", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.StringVar(&rootFlag, "r", "", "override root `tile` as z/x/y")
	flag.IntVar(&maxZoomFlag, "m", -1, "override max `zoom`")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tilecacher version: tilecacher/v0.1.0
Usage: tilecacher [-h] [-c filename] [-l logLevel] [-r z/x/y] [-m maxZoom]
`)
	flag.PrintDefaults()
}
