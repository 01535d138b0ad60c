// Package assign distributes create and answer duties over topic blocks,
// balanced per class.
package assign

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/quizgrader/internal/model"
)

// MinBlocks is the smallest block count a balancer run accepts.
const MinBlocks = 3

var (
	// ErrInvalidBlock is returned for a token that is not week_from-to.
	ErrInvalidBlock = errors.New("invalid block")
	// ErrTooFewBlocks is returned when fewer than MinBlocks blocks are given.
	ErrTooFewBlocks = errors.New("minimum 3 blocks required")
	// ErrInvalidTestNumber is returned for test numbers outside 1..12.
	ErrInvalidTestNumber = errors.New("test number must be between 1 and 12")
)

var blockRegex = regexp.MustCompile(`^(\d+)_(\d+-\d+)$`)

// ParseBlocks reads a ';'-separated list such as "1_8-12; 1_13-17; 2_2-6".
// Empty items are skipped. The first malformed item fails the whole parse.
func ParseBlocks(s string) ([]model.Block, error) {
	var blocks []model.Block
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		m := blockRegex.FindStringSubmatch(item)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBlock, item)
		}
		week, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBlock, item, err)
		}
		blocks = append(blocks, model.Block{Week: week, Range: m[2]})
	}
	return blocks, nil
}

// ValidateBlocks enforces the minimum block count.
func ValidateBlocks(blocks []model.Block) error {
	if len(blocks) < MinBlocks {
		return fmt.Errorf("%w, got %d", ErrTooFewBlocks, len(blocks))
	}
	return nil
}

// ParseAndValidateBlocks combines ParseBlocks and ValidateBlocks.
func ParseAndValidateBlocks(s string) ([]model.Block, error) {
	blocks, err := ParseBlocks(s)
	if err != nil {
		return nil, err
	}
	if err := ValidateBlocks(blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Labels renders every block label in input order.
func Labels(blocks []model.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Label()
	}
	return out
}

// ValidTestNumber checks the 1..12 range of a test number.
func ValidTestNumber(n int) error {
	if n < 1 || n > 12 {
		return fmt.Errorf("%w, got %d", ErrInvalidTestNumber, n)
	}
	return nil
}

// FileName returns the workbook name for a test's assignment table.
func FileName(testNumber int) string {
	return fmt.Sprintf("3PMo_Zuteilung_Test%02d.xlsx", testNumber)
}
