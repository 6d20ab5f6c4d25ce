package runner

import (
	"fmt"
	"sync"
	"time"

	"formprobe/evidence"
	"formprobe/metadata"
)

// MemoryStore keeps runs, evidence metadata, and form descriptors in memory
// only (no persistence). It backs tests and single-shot CLI invocations and
// implements both Store and FormSource.
type MemoryStore struct {
	mu    sync.Mutex
	runs  map[string]*Run
	order []string
	evid  map[string][]evidence.Record
	forms map[string]*metadata.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]*Run),
		evid:  make(map[string][]evidence.Record),
		forms: make(map[string]*metadata.Document),
	}
}

// CreateRun stores a new run.
func (s *MemoryStore) CreateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = run.Clone()
	// Prepend to keep most recent first
	s.order = append([]string{run.ID}, s.order...)
	return nil
}

// Run returns a copy of the stored run.
func (s *MemoryStore) Run(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run.Clone(), nil
}

// Runs returns all runs, newest first.
func (s *MemoryStore) Runs() ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Run, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.runs[id].Clone())
	}
	return result, nil
}

// RunsByForm returns the runs for one form, newest first.
func (s *MemoryStore) RunsByForm(formID string) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*Run
	for _, id := range s.order {
		if run := s.runs[id]; run.FormID == formID {
			result = append(result, run.Clone())
		}
	}
	return result, nil
}

// UpdateRun replaces the stored record.
func (s *MemoryStore) UpdateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	s.runs[run.ID] = run.Clone()
	return nil
}

// DeleteRun removes a terminal run and its evidence rows.
func (s *MemoryStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrRunActive, id, run.Status)
	}
	delete(s.runs, id)
	delete(s.evid, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddEvidence records captured evidence metadata.
func (s *MemoryStore) AddEvidence(rec evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evid[rec.RunID] = append(s.evid[rec.RunID], rec)
	return nil
}

// EvidenceByRun returns the evidence records for a run, oldest first.
func (s *MemoryStore) EvidenceByRun(runID string) ([]evidence.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.evid[runID]
	result := make([]evidence.Record, len(records))
	copy(result, records)
	return result, nil
}

// PruneEvidence removes evidence rows older than the cutoff for terminal
// runs and returns the removed records.
func (s *MemoryStore) PruneEvidence(cutoff time.Time) ([]evidence.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []evidence.Record
	for runID, records := range s.evid {
		run, ok := s.runs[runID]
		if !ok || !run.Status.Terminal() {
			continue
		}
		var kept []evidence.Record
		for _, rec := range records {
			if rec.CapturedAt.Before(cutoff) {
				removed = append(removed, rec)
			} else {
				kept = append(kept, rec)
			}
		}
		if len(kept) == 0 {
			delete(s.evid, runID)
		} else {
			s.evid[runID] = kept
		}
	}
	return removed, nil
}

// CreateForm registers or replaces a form's descriptor document.
func (s *MemoryStore) CreateForm(doc *metadata.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *doc
	cp.Fields = make([]metadata.Field, len(doc.Fields))
	copy(cp.Fields, doc.Fields)
	s.forms[doc.FormID] = &cp
	return nil
}

// Form returns the descriptor document for a form id.
func (s *MemoryStore) Form(id string) (*metadata.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}
	cp := *doc
	cp.Fields = make([]metadata.Field, len(doc.Fields))
	copy(cp.Fields, doc.Fields)
	return &cp, nil
}

// Forms returns all registered forms.
func (s *MemoryStore) Forms() ([]*metadata.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*metadata.Document, 0, len(s.forms))
	for _, doc := range s.forms {
		cp := *doc
		cp.Fields = make([]metadata.Field, len(doc.Fields))
		copy(cp.Fields, doc.Fields)
		result = append(result, &cp)
	}
	return result, nil
}
