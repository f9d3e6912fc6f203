package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aussiebroadwan/tms/internal/tms/app"
)

func main() {
	checkConfig := flag.Bool("check-config", false, "validate the environment configuration and exit")
	version := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.BuildVersion)
		return
	}

	cfg := app.LoadConfig()

	if *checkConfig {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
		fmt.Println("configuration ok")
		return
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize tms: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("tms error: %v", err)
	}
}
