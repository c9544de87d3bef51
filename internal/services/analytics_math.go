package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
)

// All aggregate arithmetic runs on decimals and rounds half away from zero
// to two places, so 81.875 becomes 81.88 and 3.275 becomes 3.28.

const reportPlaces = 2

var gpaDivisor = decimal.NewFromInt(25)

// normalizeScore rounds an incoming score to the stored precision
func normalizeScore(score float64) float64 {
	return decimal.NewFromFloat(score).Round(reportPlaces).InexactFloat64()
}

func meanOf(scores []float64) (decimal.Decimal, bool) {
	if len(scores) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(decimal.NewFromFloat(s))
	}
	return sum.Div(decimal.NewFromInt(int64(len(scores)))), true
}

func rounded(d decimal.Decimal) *float64 {
	v := d.Round(reportPlaces).InexactFloat64()
	return &v
}

// gpaOf rescales an unrounded mean on the 100 point scale to 4.0
func gpaOf(mean decimal.Decimal) *float64 {
	return rounded(mean.Div(gpaDivisor))
}

func buildClassAverage(classID uint, className string, scores []float64) models.ClassAverage {
	avg := models.ClassAverage{
		ClassID:    classID,
		ClassName:  className,
		GradeCount: int64(len(scores)),
	}
	mean, ok := meanOf(scores)
	if !ok {
		avg.NoData = true
		return avg
	}
	avg.Average = rounded(mean)
	return avg
}

// distributionOf counts letters derived from each score, all five letters present
func distributionOf(scope string, scores []float64) models.GradeDistribution {
	counts := make(map[models.GradeLetter]int64, len(models.GradeLetters))
	var total int64
	for _, score := range scores {
		letter, _, err := Classify(score)
		if err != nil {
			continue
		}
		counts[letter]++
		total++
	}

	dist := models.GradeDistribution{
		Scope:   scope,
		Letters: make([]models.LetterCount, 0, len(models.GradeLetters)),
		Total:   total,
	}
	for _, letter := range models.GradeLetters {
		dist.Letters = append(dist.Letters, models.LetterCount{Letter: letter, Count: counts[letter]})
	}
	return dist
}

func scoresOf(rows []repositories.ScoreRow) []float64 {
	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = r.Score
	}
	return scores
}

// rankingEntry is one student's position input
type rankingEntry struct {
	StudentID uint            `json:"student_id"`
	Mean      decimal.Decimal `json:"mean"`
}

// rankStudents orders students by mean score descending. Rows must be in
// grade id order; equal means keep the order in which each student's first
// grade appears, so ties get consecutive distinct ranks.
func rankStudents(rows []repositories.ScoreRow) []rankingEntry {
	var order []uint
	scores := make(map[uint][]float64)
	for _, r := range rows {
		if _, seen := scores[r.StudentID]; !seen {
			order = append(order, r.StudentID)
		}
		scores[r.StudentID] = append(scores[r.StudentID], r.Score)
	}

	ranking := make([]rankingEntry, 0, len(order))
	for _, id := range order {
		mean, _ := meanOf(scores[id])
		ranking = append(ranking, rankingEntry{StudentID: id, Mean: mean})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Mean.GreaterThan(ranking[j].Mean)
	})
	return ranking
}

// rankOf returns the 1-based position, nil when the student is not ranked
func rankOf(ranking []rankingEntry, studentID uint) *int {
	for i, e := range ranking {
		if e.StudentID == studentID {
			rank := i + 1
			return &rank
		}
	}
	return nil
}
