package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"mimi-cli/internal/projtree"

	"github.com/google/uuid"
)

// ActionRecord is one line of actions.jsonl.
type ActionRecord struct {
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Action  projtree.Action `json:"action"`
	Applied bool            `json:"applied"`
}

// LogLineError points at a malformed action log line.
type LogLineError struct {
	Path string
	Line int
	Err  error
}

func (e *LogLineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *LogLineError) Unwrap() error { return e.Err }

// AppendAction appends a dispatched action to the log.
func (s Store) AppendAction(a projtree.Action, out projtree.Outcome) (ActionRecord, error) {
	if err := a.Validate(); err != nil {
		return ActionRecord{}, err
	}
	if err := s.Ensure(); err != nil {
		return ActionRecord{}, err
	}
	rec := ActionRecord{
		ID:      uuid.NewString(),
		TS:      time.Now().UTC(),
		Action:  a,
		Applied: out.Applied,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return ActionRecord{}, err
	}

	f, err := os.OpenFile(s.actionsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ActionRecord{}, err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return ActionRecord{}, err
	}
	return rec, nil
}

// ReadActions returns all records in append order. A missing log is empty.
func (s Store) ReadActions() ([]ActionRecord, error) {
	path := s.actionsPath()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []ActionRecord
	sc := bufio.NewScanner(f)
	// Trees can be large; allow long lines.
	sc.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec ActionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &LogLineError{Path: path, Line: lineNo, Err: err}
		}
		if err := rec.Action.Validate(); err != nil {
			return nil, &LogLineError{Path: path, Line: lineNo, Err: err}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Replay folds records into base, in order.
func Replay(base projtree.State, recs []ActionRecord) projtree.State {
	st := base
	for _, r := range recs {
		st = projtree.Reduce(st, r.Action)
	}
	if st == nil {
		st = projtree.State{}
	}
	return st
}
