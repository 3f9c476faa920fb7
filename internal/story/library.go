package story

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	metadataFileName = "story_info.json"
	textDirName      = "story_text"
	textFileSuffix   = "_text.md"
)

var (
	chapterHeadingPattern = regexp.MustCompile(`^# \w+`)
	volumeHeadingPattern  = regexp.MustCompile(`^A Cadmean Victory Volume \w+`)
)

type record struct {
	info         Info
	text         []string
	chapterIndex []int
	volumeIndex  []int
}

// Library loads and serves the indexed story corpus.
type Library struct {
	logger  *logrus.Logger
	records map[string]*record
}

// NewLibrary constructs an empty library. Call Load before serving queries.
func NewLibrary(logger *logrus.Logger) *Library {
	return &Library{
		logger:  logger,
		records: make(map[string]*record),
	}
}

// Load reads story metadata and text from the data directory and builds the
// per-story chapter and volume indexes. The layout is:
//
//	<dataDir>/story_info.json
//	<dataDir>/story_text/**/<acronym>_text.md
func (l *Library) Load(dataDir string) error {
	if strings.TrimSpace(dataDir) == "" {
		return eris.New("data directory is required")
	}

	if err := l.loadMetadata(filepath.Join(dataDir, metadataFileName)); err != nil {
		return err
	}

	if err := l.loadText(filepath.Join(dataDir, textDirName)); err != nil {
		return err
	}

	return nil
}

func (l *Library) loadMetadata(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "reading story metadata: %s", path)
	}

	var entries map[string]Info
	if err := json.Unmarshal(raw, &entries); err != nil {
		return eris.Wrapf(err, "decoding story metadata: %s", path)
	}

	for acronym, info := range entries {
		if info.Acronym == "" {
			info.Acronym = acronym
		}
		l.records[acronym] = &record{info: info}
	}

	if l.logger != nil {
		l.logger.WithField("stories", len(l.records)).Info("loaded story metadata")
	}

	return nil
}

func (l *Library) loadText(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return eris.Wrapf(err, "walking story text directory: %s", dir)
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), textFileSuffix) {
			return nil
		}

		acronym := strings.TrimSuffix(entry.Name(), textFileSuffix)
		rec, ok := l.records[acronym]
		if !ok {
			if l.logger != nil {
				l.logger.WithFields(logrus.Fields{
					"file":    path,
					"acronym": acronym,
				}).Warn("story text file without metadata entry, skipping")
			}
			return nil
		}

		start := time.Now()
		if err := loadRecordText(rec, path); err != nil {
			return err
		}

		if l.logger != nil {
			l.logger.WithFields(logrus.Fields{
				"acronym":    acronym,
				"lines":      len(rec.text),
				"chapters":   len(rec.chapterIndex),
				"volumes":    len(rec.volumeIndex),
				"index_time": time.Since(start).String(),
			}).Info("indexed story text")
		}

		return nil
	})
}

func loadRecordText(rec *record, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "reading story text: %s", path)
	}

	rec.text = rec.text[:0]
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec.text = append(rec.text, strings.TrimRight(line, "\r"))
	}

	indexRecord(rec)
	return nil
}

// indexRecord builds the chapter and volume tables of contents from heading
// lines in the story text.
func indexRecord(rec *record) {
	rec.chapterIndex = rec.chapterIndex[:0]
	rec.volumeIndex = rec.volumeIndex[:0]

	for i, line := range rec.text {
		switch {
		case chapterHeadingPattern.MatchString(line):
			// The prologue heading is split across two lines; its second
			// half is not a chapter of its own.
			if strings.Contains(line, "*A Quest for Europa*") {
				continue
			}
			rec.chapterIndex = append(rec.chapterIndex, i)

		case volumeHeadingPattern.MatchString(line):
			if n := len(rec.volumeIndex); n == 0 || line != rec.text[rec.volumeIndex[n-1]] {
				rec.volumeIndex = append(rec.volumeIndex, i)
			}
		}
	}
}

// Info returns the metadata record for the given acronym.
func (l *Library) Info(acronym string) (Info, bool) {
	rec, ok := l.records[acronym]
	if !ok {
		return Info{}, false
	}
	return rec.info, true
}

// Stories lists the metadata of every loaded story, ordered by acronym.
func (l *Library) Stories() []Info {
	infos := make([]Info, 0, len(l.records))
	for _, rec := range l.records {
		infos = append(infos, rec.info)
	}

	sort.Slice(infos, func(a, b int) bool {
		return infos[a].Acronym < infos[b].Acronym
	})

	return infos
}

// StoryCount reports the number of loaded stories.
func (l *Library) StoryCount() int {
	return len(l.records)
}

// LineCount reports the total number of indexed text lines across stories.
func (l *Library) LineCount() int {
	total := 0
	for _, rec := range l.records {
		total += len(rec.text)
	}
	return total
}
