package assign

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/names"
)

// NewRand returns a random source seeded with seed, or with the current
// time when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Balance gives every student one create block and two distinct answer
// blocks, none equal to the create block. Within each class blocks are
// filled greedily by lowest count, ties broken by a shuffled block order.
// Rows are sorted by student code.
func Balance(students []model.Student, blocks []model.Block, rnd *rand.Rand) ([]model.AssignmentRow, error) {
	if err := ValidateBlocks(blocks); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = NewRand(0)
	}

	var classes []string
	byClass := make(map[string][]model.Student)
	for _, s := range students {
		if _, ok := byClass[s.Class]; !ok {
			classes = append(classes, s.Class)
		}
		byClass[s.Class] = append(byClass[s.Class], s)
	}

	labels := Labels(blocks)
	rows := make([]model.AssignmentRow, 0, len(students))
	for _, class := range classes {
		rows = append(rows, balanceClass(class, byClass[class], labels, rnd)...)
	}
	names.SortFunc(rows, func(r model.AssignmentRow) string { return r.StudentCode })

	slog.Debug("balanced assignment", "students", len(rows), "classes", len(classes), "blocks", len(blocks))
	return rows, nil
}

func balanceClass(class string, students []model.Student, labels []string, rnd *rand.Rand) []model.AssignmentRow {
	studs := append([]model.Student(nil), students...)
	rnd.Shuffle(len(studs), func(i, j int) { studs[i], studs[j] = studs[j], studs[i] })

	n := len(labels)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rnd.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	createCount := make([]int, n)
	answerCount := make([]int, n)
	createIdx := make([]int, len(studs))
	for i := range studs {
		idx := pickMin(createCount, order, nil)
		createCount[idx]++
		createIdx[i] = idx
	}

	rows := make([]model.AssignmentRow, 0, len(studs))
	for i, s := range studs {
		c := createIdx[i]
		a1 := pickMin(answerCount, order, func(k int) bool { return k != c })
		answerCount[a1]++
		a2 := pickMin(answerCount, order, func(k int) bool { return k != c && k != a1 })
		answerCount[a2]++

		rows = append(rows, model.AssignmentRow{
			StudentCode:  s.Code,
			ClassName:    class,
			CreateBlock:  labels[c],
			AnswerBlocks: [2]string{labels[a1], labels[a2]},
		})
	}
	return rows
}

// pickMin returns the first index in order with the lowest count among the
// allowed ones. A nil allowed accepts every index.
func pickMin(counts, order []int, allowed func(int) bool) int {
	best := -1
	for _, i := range order {
		if allowed != nil && !allowed(i) {
			continue
		}
		if best < 0 || counts[i] < counts[best] {
			best = i
		}
	}
	return best
}
