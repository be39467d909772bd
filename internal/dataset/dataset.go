// Package dataset loads the flat-file evaluation and ingestion formats:
// documents and queries as JSON Lines, relevance judgments as CSV. The
// loaders validate eagerly and report the offending line, so a malformed
// dataset fails before any retrieval work starts.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/logger"
)

// maxLineBytes bounds a single JSONL record. Corpus documents are short
// code/markup snippets; anything past this is a malformed file.
const maxLineBytes = 4 << 20

type documentRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryRecord struct {
	QueryID string `json:"query_id"`
	Text    string `json:"text"`
}

// LoadDocuments reads a JSONL corpus file, one document object per line.
func LoadDocuments(path string) ([]domain.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening documents file: %w", err)
	}
	defer file.Close()

	docs, err := readDocuments(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("Loaded %d documents from %s", len(docs), path)
	return docs, nil
}

func readDocuments(r io.Reader) ([]domain.Document, error) {
	var docs []domain.Document

	err := scanLines(r, func(line int, data []byte) error {
		var rec documentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if rec.ID == "" {
			return fmt.Errorf("line %d: %w: document id is empty", line, domain.ErrInvalidArgument)
		}
		if rec.Text == "" {
			return fmt.Errorf("line %d: %w: document %q has no text", line, domain.ErrInvalidArgument, rec.ID)
		}
		docs = append(docs, domain.Document{ID: rec.ID, Text: rec.Text, Metadata: rec.Metadata})
		return nil
	})
	return docs, err
}

// LoadQueries reads a JSONL query file, one query object per line.
func LoadQueries(path string) ([]domain.Query, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}
	defer file.Close()

	queries, err := readQueries(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("Loaded %d queries from %s", len(queries), path)
	return queries, nil
}

func readQueries(r io.Reader) ([]domain.Query, error) {
	var queries []domain.Query

	err := scanLines(r, func(line int, data []byte) error {
		var rec queryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if rec.QueryID == "" {
			return fmt.Errorf("line %d: %w: query id is empty", line, domain.ErrInvalidArgument)
		}
		queries = append(queries, domain.Query{ID: rec.QueryID, Text: rec.Text})
		return nil
	})
	return queries, err
}

// scanLines calls fn for every non-blank line.
func scanLines(r io.Reader, fn func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		data := strings.TrimSpace(scanner.Text())
		if data == "" {
			continue
		}
		if err := fn(line, []byte(data)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// LoadJudgments reads a qrels CSV file with query_id, target_id and label
// columns. A header row is skipped when present. The target is a chunk ID
// or a document ID.
func LoadJudgments(path string) ([]domain.RelevanceJudgment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening judgments file: %w", err)
	}
	defer file.Close()

	judgments, err := readJudgments(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("Loaded %d judgments from %s", len(judgments), path)
	return judgments, nil
}

func readJudgments(r io.Reader) ([]domain.RelevanceJudgment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var judgments []domain.RelevanceJudgment
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++

		// Skip a header row.
		if line == 1 && strings.EqualFold(record[0], "query_id") {
			continue
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: label %q is not an integer", line, domain.ErrInvalidArgument, record[2])
		}
		if label < 0 {
			return nil, fmt.Errorf("line %d: %w: label must be >= 0, got %d", line, domain.ErrInvalidArgument, label)
		}
		if record[0] == "" || record[1] == "" {
			return nil, fmt.Errorf("line %d: %w: query id and target id are required", line, domain.ErrInvalidArgument)
		}

		judgments = append(judgments, domain.RelevanceJudgment{
			QueryID:  record[0],
			TargetID: record[1],
			Label:    label,
		})
	}

	return judgments, nil
}
