package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/examprep/mcq-backend/internal/quiz"
)

// ErrBankNotFound is returned for a language key with no question bank.
var ErrBankNotFound = errors.New("question bank not found")

// FileSource reads banks from <dir>/<language>_mcq.json.
type FileSource struct {
	dir       string
	languages map[string]bool
}

// NewFileSource creates a FileSource limited to the given language keys.
func NewFileSource(dir string, languages []string) *FileSource {
	allowed := make(map[string]bool, len(languages))
	for _, l := range languages {
		allowed[l] = true
	}
	return &FileSource{dir: dir, languages: allowed}
}

// BankFileName returns the file name holding a language's bank.
func BankFileName(language string) string {
	return language + "_mcq.json"
}

// Fetch implements quiz.QuestionSource.
func (s *FileSource) Fetch(ctx context.Context, language string) ([]quiz.RawQuestion, error) {
	if !s.languages[language] {
		return nil, fmt.Errorf("%w: %q", ErrBankNotFound, language)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, BankFileName(language))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBankNotFound, path)
		}
		return nil, fmt.Errorf("read bank file: %w", err)
	}

	return DecodeBank(data)
}

// DecodeBank parses a JSON array of raw question records.
func DecodeBank(data []byte) ([]quiz.RawQuestion, error) {
	var raw []quiz.RawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if raw == nil {
		// "null" is not a bank.
		return nil, errors.New("decode bank: expected a JSON array")
	}
	return raw, nil
}
