package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tickScope/internal/model"
)

// JsonlArchive appends fetched transaction pages to a JSONL file.
type JsonlArchive struct {
	path string
	mu   sync.Mutex
}

func NewJsonlArchive(path string) *JsonlArchive {
	return &JsonlArchive{path: path}
}

// PutTxBatch appends a batch of transaction results as JSON lines.
func (s *JsonlArchive) PutTxBatch(txs []model.TransactionResult) error {
	if s == nil || len(txs) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, tx := range txs {
		line, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("marshal tx %s: %w", tx.TxHash, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write tx: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}

// ReadTxResults streams a JSONL file of transaction results in pages of pageSize.
// fn receives each page in file order; returning an error stops the scan.
func ReadTxResults(path string, pageSize int, fn func(page []model.TransactionResult) error) error {
	if pageSize <= 0 {
		pageSize = 100
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	page := make([]model.TransactionResult, 0, pageSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var tx model.TransactionResult
		if err := json.Unmarshal(line, &tx); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		page = append(page, tx)

		if len(page) >= pageSize {
			if err := fn(page); err != nil {
				return err
			}
			page = make([]model.TransactionResult, 0, pageSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if len(page) > 0 {
		return fn(page)
	}
	return nil
}
