// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// LoadChapterMap reads chapter_map.csv rows. Comment lines (leading #) and
// rows without a complete page range are dropped, so a freshly scaffolded
// template loads as an empty map.
func LoadChapterMap(path string) ([]types.ChapterMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chapter map: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing chapter map: %w", err)
	}

	var chapters []types.ChapterMapping
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(rec[0], "Subject") {
			continue // header
		}
		if len(rec) < 5 {
			continue
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(rec[3]))
		end, err2 := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err1 != nil || err2 != nil {
			continue
		}
		chapters = append(chapters, types.ChapterMapping{
			Subject:   strings.TrimSpace(rec[0]),
			PDFFile:   strings.TrimSpace(rec[1]),
			Chapter:   strings.TrimSpace(rec[2]),
			StartPage: start,
			EndPage:   end,
		})
	}
	return chapters, nil
}

// LoadTopics reads the topic names from topic_map.csv: the first column of
// every non-comment row, minus the header. The pipeline feeds these to the
// model as the classification vocabulary.
func LoadTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topic map: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing topic map: %w", err)
	}

	var topics []string
	for i, rec := range records {
		if len(rec) == 0 {
			continue
		}
		topic := strings.TrimSpace(rec[0])
		if topic == "" {
			continue
		}
		if i == 0 && strings.EqualFold(topic, "JEE_Topic") {
			continue // header
		}
		topics = append(topics, topic)
	}
	return topics, nil
}
