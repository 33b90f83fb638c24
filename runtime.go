package main

import (
	"os"
	"runtime/pprof"
	"runtime/trace"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	cpuProfileFile = "imgbench-cpu.pprof"
	traceFile      = "imgbench-trace.out"
)

func startProfiling(log logrus.FieldLogger) (func(), error) {
	traceOut, err := os.Create(traceFile)

	if err != nil {
		return nil, errors.Wrap(err, "create trace file")
	}

	if err := trace.Start(traceOut); err != nil {
		_ = traceOut.Close()
		return nil, errors.Wrap(err, "start trace")
	}

	cpuOut, err := os.Create(cpuProfileFile)

	if err != nil {
		trace.Stop()
		_ = traceOut.Close()

		return nil, errors.Wrap(err, "create cpu profile")
	}

	if err := pprof.StartCPUProfile(cpuOut); err != nil {
		trace.Stop()
		_ = traceOut.Close()
		_ = cpuOut.Close()

		return nil, errors.Wrap(err, "start cpu profile")
	}

	return func() {
		pprof.StopCPUProfile()
		trace.Stop()
		_ = traceOut.Close()
		_ = cpuOut.Close()

		log.WithFields(logrus.Fields{"cpu": cpuProfileFile, "trace": traceFile}).Info("profiles written")
	}, nil
}
