package extract

// FieldKind selects how a cell's content is turned into text.
type FieldKind int

const (
	// KindLabel prefers a nested <label>, falling back to the cell text.
	KindLabel FieldKind = iota
	// KindName drops date spans, parenthetical suffixes and the "n.a." sentinel.
	KindName
	// KindAttrNumber reads a numeric data attribute from inside the cell.
	KindAttrNumber
	// KindCount reads an integer between '>' and '<'; "n.a." is 0.
	KindCount
	// KindNumber parses the cell's visible text; non-numeric is empty.
	KindNumber
	// KindLink reads an href containing Attr. Links never make a row present.
	KindLink
)

// Field describes one column of a table schema.
type Field struct {
	Name     string
	Selector string
	Kind     FieldKind
	// Attr is the data attribute for KindAttrNumber and the href
	// substring for KindLink.
	Attr string
}

// Schema is an ordered list of fields extracted from every row.
type Schema []Field

// Field names of the question-bank schema.
const (
	FieldQuestionName = "questionname"
	FieldCreatorName  = "creatorname"
	FieldDifficulty   = "difficultylevel"
	FieldRate         = "rate"
	FieldComments     = "comments"
	FieldEditURL      = "editUrl"
	FieldPreviewURL   = "previewUrl"
)

// Field names of the ranking schema.
const (
	FieldStudentName = "student_name"
	FieldPublished   = "published_question_points"
	FieldRatingPts   = "rating_points"
	FieldCorrect     = "correct_answers_points"
	FieldFalse       = "false_answers_points"
)

// QuestionSchema matches the StudentQuiz question-bank table.
var QuestionSchema = Schema{
	{Name: FieldQuestionName, Selector: "td.questionname", Kind: KindLabel},
	{Name: FieldCreatorName, Selector: "td.creatorname", Kind: KindName},
	{Name: FieldDifficulty, Selector: "td.difficultylevel", Kind: KindAttrNumber, Attr: "data-difficultylevel"},
	{Name: FieldRate, Selector: "td.rates", Kind: KindAttrNumber, Attr: "data-rate"},
	{Name: FieldComments, Selector: "td.comment", Kind: KindCount},
	{Name: FieldEditURL, Selector: "td.editmenu", Kind: KindLink, Attr: "editquestion"},
	{Name: FieldPreviewURL, Selector: "td.editmenu", Kind: KindLink, Attr: "preview.php"},
}

// RankingSchema matches the leaderboard table.
var RankingSchema = Schema{
	{Name: FieldStudentName, Selector: "td.cell.c1", Kind: KindName},
	{Name: FieldPublished, Selector: "td.cell.c3", Kind: KindNumber},
	{Name: FieldRatingPts, Selector: "td.cell.c5", Kind: KindNumber},
	{Name: FieldCorrect, Selector: "td.cell.c6", Kind: KindNumber},
	{Name: FieldFalse, Selector: "td.cell.c7", Kind: KindNumber},
}
