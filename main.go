package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/cmd"
)

func main() {
	log.SetOutput(os.Stderr)
	if level, err := log.ParseLevel(os.Getenv("BUTLER_LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	cmd.Execute()
}
