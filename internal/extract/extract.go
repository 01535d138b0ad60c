// Package extract pulls typed rows out of pasted LMS table HTML.
package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/quizgrader/internal/model"
)

// ErrParse is returned when the input cannot be parsed as markup at all.
var ErrParse = errors.New("parse HTML")

var (
	numberRegex  = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)
	countRegex   = regexp.MustCompile(`>\s*(\d+)\s*<`)
	naRegex      = regexp.MustCompile(`(?i)n\.a\.`)
	naExactRegex = regexp.MustCompile(`(?i)^n\.a\.$`)
)

// Row maps field names to the cleaned text of one table row.
type Row map[string]string

// Extract parses html and returns one Row per table row that has at least
// one schema cell with a non-empty value. Rows are returned in document order.
func Extract(html string, schema Schema) ([]Row, error) {
	return extractFrom(strings.NewReader(html), schema)
}

func extractFrom(r io.Reader, schema Schema) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	trs := doc.Find("table tbody tr")
	if trs.Length() == 0 {
		trs = doc.Find("tr")
	}

	var rows []Row
	trs.Each(func(_ int, tr *goquery.Selection) {
		if row, ok := extractRow(tr, schema); ok {
			rows = append(rows, row)
		}
	})
	slog.Debug("extracted rows", "candidates", trs.Length(), "kept", len(rows))
	return rows, nil
}

func extractRow(tr *goquery.Selection, schema Schema) (Row, bool) {
	row := make(Row, len(schema))
	anyCell := false
	present := false
	for _, f := range schema {
		td := tr.Find(f.Selector).First()
		if td.Length() == 0 {
			row[f.Name] = emptyValue(f.Kind)
			continue
		}
		v := cellValue(td, f)
		row[f.Name] = v
		if f.Kind == KindLink {
			continue
		}
		anyCell = true
		if v != "" && !(f.Kind == KindCount && v == "0") {
			present = true
		}
	}
	return row, anyCell && present
}

func emptyValue(kind FieldKind) string {
	if kind == KindCount {
		return "0"
	}
	return ""
}

func cellValue(td *goquery.Selection, f Field) string {
	switch f.Kind {
	case KindLabel:
		if label := td.Find("label").First(); label.Length() > 0 {
			if s := cleanText(label.Text()); s != "" {
				return s
			}
		}
		return cleanText(td.Text())
	case KindName:
		return cleanName(td)
	case KindAttrNumber:
		v, _ := td.Find("[" + f.Attr + "]").First().Attr(f.Attr)
		return NormalizeNumber(v)
	case KindCount:
		inner, err := td.Html()
		if err != nil || naRegex.MatchString(inner) {
			return "0"
		}
		m := countRegex.FindStringSubmatch(inner)
		if m == nil {
			return "0"
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "0"
		}
		return strconv.Itoa(n)
	case KindNumber:
		return NormalizeNumber(td.Text())
	case KindLink:
		href, _ := td.Find(`[href*="` + f.Attr + `"]`).First().Attr("href")
		return strings.ReplaceAll(href, "&amp;", "&")
	}
	return ""
}

// cleanName strips date spans, cuts at the first '(' and maps "n.a." to "".
func cleanName(td *goquery.Selection) string {
	c := td.Clone()
	c.Find(`span[class*="date"]`).ReplaceWithHtml(" ")
	name := RemoveParentheses(cleanText(c.Text()))
	if naExactRegex.MatchString(name) {
		return ""
	}
	return name
}

// cleanText collapses whitespace runs (including non-breaking spaces) and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemoveParentheses drops everything from the first '(' onward.
func RemoveParentheses(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// NormalizeNumber returns the first signed decimal in s, accepting a comma
// as the decimal separator. It returns "" when s holds no number.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	s = strings.Replace(s, ",", ".", 1)
	return numberRegex.FindString(s)
}

// NumberOrNil parses s with NormalizeNumber; absence yields nil, not zero.
func NumberOrNil(s string) *float64 {
	n := NormalizeNumber(s)
	if n == "" {
		return nil
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Questions extracts question-bank rows.
func Questions(html string) ([]model.QuestionRow, error) {
	rows, err := Extract(html, QuestionSchema)
	if err != nil {
		return nil, err
	}
	out := make([]model.QuestionRow, 0, len(rows))
	for _, r := range rows {
		comments, _ := strconv.Atoi(r[FieldComments])
		out = append(out, model.QuestionRow{
			QuestionName: r[FieldQuestionName],
			CreatorName:  r[FieldCreatorName],
			Difficulty:   r[FieldDifficulty],
			Rating:       r[FieldRate],
			Comments:     comments,
			EditURL:      r[FieldEditURL],
			PreviewURL:   r[FieldPreviewURL],
		})
	}
	return out, nil
}

// Ranking extracts leaderboard rows.
func Ranking(html string) ([]model.RankingRow, error) {
	rows, err := Extract(html, RankingSchema)
	if err != nil {
		return nil, err
	}
	out := make([]model.RankingRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.RankingRow{
			StudentName:             r[FieldStudentName],
			PublishedQuestionPoints: NumberOrNil(r[FieldPublished]),
			RatingPoints:            NumberOrNil(r[FieldRatingPts]),
			CorrectAnswerPoints:     NumberOrNil(r[FieldCorrect]),
			FalseAnswerPoints:       NumberOrNil(r[FieldFalse]),
		})
	}
	return out, nil
}
