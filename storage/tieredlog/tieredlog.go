// Package tieredlog implements the journal's hot/cold split: a bounded hot
// JSONL tail on local disk, with overflow compacted into the CAS store as
// cold segments tracked by a small ref log of {content_hash, line_count}.
package tieredlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentworld/codec"
	"agentworld/storage"
)

// ColdRef remembers one compacted segment: its CAS content hash and how
// many lines it must expand back into, so reassembly can detect a mismatch
// between what the ref log promises and what the CAS blob actually holds.
type ColdRef struct {
	ContentHash string `json:"content_hash"`
	LineCount   int    `json:"line_count"`
}

// Log is a tiered JSONL append log backed by a CAS blob store for overflow.
type Log struct {
	hotPath          string
	coldRefsPath     string
	blobs            *storage.BlobStore
	maxHotLines      int
	coldSegmentLines int
}

// New constructs a tiered log rooted at dir, offloading to blobs once the
// hot tail exceeds maxHotLines, in segments of at most coldSegmentLines
// lines. Append compacts after every line, so once the tail is full each
// Append moves the one overflowing line into a segment of its own.
func New(dir string, blobs *storage.BlobStore, maxHotLines, coldSegmentLines int) *Log {
	if maxHotLines <= 0 {
		maxHotLines = 1
	}
	if coldSegmentLines <= 0 {
		coldSegmentLines = 1
	}
	return &Log{
		hotPath:          filepath.Join(dir, "journal.hot.jsonl"),
		coldRefsPath:     filepath.Join(dir, "journal.cold_refs.jsonl"),
		blobs:            blobs,
		maxHotLines:      maxHotLines,
		coldSegmentLines: coldSegmentLines,
	}
}

// Append writes one JSON line to the hot tail, then compacts if the tail has
// grown past the configured bound.
func (l *Log) Append(line string) error {
	if err := appendLine(l.hotPath, line); err != nil {
		return err
	}
	return l.compact()
}

func (l *Log) compact() error {
	if _, err := os.Stat(l.hotPath); os.IsNotExist(err) {
		return nil
	}
	lines, err := readLines(l.hotPath)
	if err != nil {
		return err
	}

	retained := make([]string, 0, l.maxHotLines)
	overflow := make([]string, 0)
	for _, line := range lines {
		retained = append(retained, line)
		if len(retained) <= l.maxHotLines {
			continue
		}
		dropped := retained[0]
		retained = retained[1:]
		overflow = append(overflow, dropped)
	}
	if len(overflow) == 0 {
		return nil
	}

	for len(overflow) > 0 {
		segSize := l.coldSegmentLines
		if segSize > len(overflow) {
			segSize = len(overflow)
		}
		segment := overflow[:segSize]
		overflow = overflow[segSize:]
		if err := l.persistColdSegment(segment); err != nil {
			return err
		}
	}
	return writeLines(l.hotPath, retained)
}

func (l *Log) persistColdSegment(segment []string) error {
	if len(segment) == 0 {
		return nil
	}
	var sb strings.Builder
	for _, line := range segment {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	payload := []byte(sb.String())
	hash := storageHash(l.blobs, payload)
	if err := l.blobs.Put(hash, payload); err != nil {
		return fmt.Errorf("offload cold segment: %w", err)
	}
	ref := ColdRef{ContentHash: hash, LineCount: len(segment)}
	refLine, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode cold ref: %w", err)
	}
	return appendLine(l.coldRefsPath, string(refLine))
}

func storageHash(blobs *storage.BlobStore, payload []byte) string {
	return codec.Hash(blobs.Algorithm(), payload)
}

// Collect reassembles the full logical line sequence: verified cold
// segments in append order, followed by the live hot tail.
func (l *Log) Collect() ([]string, error) {
	cold, err := l.collectCold()
	if err != nil {
		return nil, err
	}
	hot, err := readLines(l.hotPath)
	if err != nil {
		return nil, err
	}
	return append(cold, hot...), nil
}

func (l *Log) collectCold() ([]string, error) {
	if _, err := os.Stat(l.coldRefsPath); os.IsNotExist(err) {
		return nil, nil
	}
	refLines, err := readLines(l.coldRefsPath)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, refLine := range refLines {
		var ref ColdRef
		if err := json.Unmarshal([]byte(refLine), &ref); err != nil {
			return nil, fmt.Errorf("decode cold ref: %w", err)
		}
		if strings.TrimSpace(ref.ContentHash) == "" || ref.LineCount == 0 {
			return nil, fmt.Errorf("cold ref missing content_hash or line_count")
		}
		data, err := l.blobs.GetVerified(ref.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("fetch cold segment %s: %w", ref.ContentHash, err)
		}
		segLines := splitNonEmptyLines(string(data))
		if len(segLines) != ref.LineCount {
			return nil, fmt.Errorf("cold ref line_count mismatch for %s: expected=%d actual=%d",
				ref.ContentHash, ref.LineCount, len(segLines))
		}
		lines = append(lines, segLines...)
	}
	return lines, nil
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return err
	}
	return nil
}

func readLines(path string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	if len(lines) == 0 {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func splitNonEmptyLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
