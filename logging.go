package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func newLogger(out io.Writer, level string, json bool) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)

	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)

	if json {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log, nil
}
