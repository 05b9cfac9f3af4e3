package pipeline

import (
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/store"
)

// Options tune per-module processing.
type Options struct {
	// FrameCount is the number of frames sampled per module.
	FrameCount int
	// Vision sends frames to the notes model; false means text-only.
	Vision bool
	// ExportDocx also renders the notes as a cue-card docx.
	ExportDocx bool
}

type implProcessor struct {
	notes  NotesWriter
	store  store.Store
	opts   Options
	logger logger.Logger
}

// New creates a Processor writing artifacts to st.
func New(notes NotesWriter, st store.Store, opts Options, log logger.Logger) Processor {
	return &implProcessor{
		notes:  notes,
		store:  st,
		opts:   opts,
		logger: log,
	}
}
