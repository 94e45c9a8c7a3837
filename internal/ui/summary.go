package ui

import (
	"time"

	"github.com/brogergvhs/mangapdf/internal/util"
)

type Summary struct {
	Chapter    string
	Candidates int
	Saved      int
	Failed     int
	Bytes      int64
	Pages      int
	Document   string
	Elapsed    time.Duration
}

func (s Summary) Print(log *Logger) {
	log.Infof("Chapter:   %s\n", s.Chapter)
	log.Infof("Found:     %d images\n", s.Candidates)
	log.Infof("Saved:     %d (%s)\n", s.Saved, util.Human(s.Bytes))
	if s.Failed > 0 {
		log.Warnf("Failed:    %d\n", s.Failed)
	}
	if s.Document != "" {
		log.Infof("PDF:       %s (%d pages)\n", s.Document, s.Pages)
	}
	log.Infof("Elapsed:   %s\n", util.HumanDuration(s.Elapsed))
}
