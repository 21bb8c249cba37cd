package logging

import (
	"log"
	"os"
)

func New() *log.Logger {
	return log.New(os.Stderr, "uptimectl ", log.LstdFlags|log.LUTC)
}
