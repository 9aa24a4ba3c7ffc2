// Package telemetry samples process resource usage during a build and
// logs periodic progress through a structured logger.
package telemetry

import (
	psutil "github.com/shirou/gopsutil/v3/cpu"
	psmem "github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Sampler emits one log line every sampleEvery files processed during
// build(), carrying the current CPU/RAM snapshot alongside the
// caller's own progress counters.
type Sampler struct {
	log         logrus.FieldLogger
	sampleEvery int
	seen        int
}

// NewSampler returns a Sampler that logs via log every sampleEvery
// files passed to Tick. sampleEvery <= 0 disables sampling.
func NewSampler(log logrus.FieldLogger, sampleEvery int) *Sampler {
	return &Sampler{log: log, sampleEvery: sampleEvery}
}

// Tick records that one more file finished ingesting and, every
// sampleEvery calls, logs a resource snapshot alongside filesDone and
// sentencesDone.
func (s *Sampler) Tick(filesDone, sentencesDone int) {
	if s.sampleEvery <= 0 {
		return
	}
	s.seen++
	if s.seen%s.sampleEvery != 0 {
		return
	}
	s.logSnapshot(filesDone, sentencesDone)
}

// Final logs one last snapshot regardless of the sampleEvery cadence,
// meant to be called once after build() finishes ingesting.
func (s *Sampler) Final(filesDone, sentencesDone int) {
	s.logSnapshot(filesDone, sentencesDone)
}

func (s *Sampler) logSnapshot(filesDone, sentencesDone int) {
	fields := logrus.Fields{
		"files_done":     filesDone,
		"sentences_done": sentencesDone,
	}
	if cpuPercent, err := psutil.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		fields["cpu_percent"] = cpuPercent[0]
	}
	if mem, err := psmem.VirtualMemory(); err == nil {
		fields["rss_used_percent"] = mem.UsedPercent
	}
	s.log.WithFields(fields).Info("build progress")
}
