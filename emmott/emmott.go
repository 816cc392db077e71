// Package emmott converts classification datasets into outlier detection
// datasets in the manner of Emmott et al., "Systematic construction of anomaly
// detection benchmarks from real data". The most frequent class is kept as the
// normal class and points from the remaining classes are injected as outliers,
// drawn from a difficulty band derived from their distance to the normal data.
package emmott

import (
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"github.com/wildboar-foundation/datasets/errors"
)

// Difficulty selects which band of outlier candidates is sampled. Hard
// candidates lie closest to the normal class, simple candidates farthest.
type Difficulty string

const (
	// Simple outliers are the most obvious ones, above the 75th distance percentile.
	Simple Difficulty = "simple"
	// Easy outliers fall between the 50th and 75th distance percentile.
	Easy Difficulty = "easy"
	// Medium outliers fall between the 25th and 50th distance percentile.
	Medium Difficulty = "medium"
	// Hard outliers are below the 25th distance percentile.
	Hard Difficulty = "hard"
	// All disables banding and samples from every candidate.
	All Difficulty = "all"
)

// ParseDifficulty validates a difficulty name.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Simple, Easy, Medium, Hard, All:
		return Difficulty(s), nil
	}
	return "", errors.Errorf("unknown difficulty %q", s)
}

// DefaultContamination is the fraction of outliers in the labeled output when
// the config does not specify one.
const DefaultContamination = 0.05

// Config controls the labeling transformation.
type Config struct {
	Difficulty    Difficulty
	Contamination float64 // outlier fraction of the output, (0, 0.5]
	Seed          int64
}

// Labeled is the output of the transformation. Data holds feature rows with
// the class column removed; Labels is aligned with Data, 1 for normal points
// and -1 for outliers.
type Labeled struct {
	Data        [][]float32
	Labels      []float32
	NormalClass float32
	Outliers    int
}

// Labeler applies the Emmott transformation with a fixed configuration.
type Labeler struct {
	cfg Config
}

// New validates the config and returns a Labeler. A zero contamination
// defaults to DefaultContamination, an empty difficulty to All.
func New(cfg Config) (*Labeler, error) {
	if cfg.Difficulty == "" {
		cfg.Difficulty = All
	}
	if _, err := ParseDifficulty(string(cfg.Difficulty)); err != nil {
		return nil, err
	}
	if cfg.Contamination == 0 {
		cfg.Contamination = DefaultContamination
	}
	if cfg.Contamination < 0 || cfg.Contamination > 0.5 {
		return nil, errors.Errorf("contamination must be in (0, 0.5], got %v", cfg.Contamination)
	}
	return &Labeler{cfg: cfg}, nil
}

// Label transforms dense rows whose last column is the class attribute.
// The same seed and input rows always produce the same output.
func (l *Labeler) Label(rows [][]float32) (*Labeled, error) {
	if len(rows) == 0 {
		return nil, errors.Errorf("no rows to label")
	}
	width := len(rows[0])
	if width < 2 {
		return nil, errors.Errorf("rows need at least one feature and a class column")
	}

	normalClass, distinct := majorityClass(rows)
	if distinct < 2 {
		return nil, errors.Errorf("need at least 2 classes, got %d", distinct)
	}

	var normals, candidates [][]float32
	for _, row := range rows {
		features := row[:width-1]
		if row[width-1] == normalClass {
			normals = append(normals, features)
		} else {
			candidates = append(candidates, features)
		}
	}

	center := centroid(normals)
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = distance(c, center)
	}

	pool := band(candidates, scores, l.cfg.Difficulty)
	rng := rand.New(rand.NewSource(l.cfg.Seed))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	outliers := int(math.Round(l.cfg.Contamination / (1 - l.cfg.Contamination) * float64(len(normals))))
	if outliers < 1 {
		outliers = 1
	}
	if outliers > len(pool) {
		outliers = len(pool)
	}

	out := &Labeled{
		NormalClass: normalClass,
		Outliers:    outliers,
	}
	for _, row := range normals {
		out.Data = append(out.Data, row)
		out.Labels = append(out.Labels, 1)
	}
	for _, row := range pool[:outliers] {
		out.Data = append(out.Data, row)
		out.Labels = append(out.Labels, -1)
	}
	rng.Shuffle(len(out.Data), func(i, j int) {
		out.Data[i], out.Data[j] = out.Data[j], out.Data[i]
		out.Labels[i], out.Labels[j] = out.Labels[j], out.Labels[i]
	})
	return out, nil
}

// majorityClass returns the most frequent class value in the last column,
// breaking ties toward the smallest value, and the number of distinct classes.
func majorityClass(rows [][]float32) (float32, int) {
	counts := make(map[float32]int)
	for _, row := range rows {
		counts[row[len(row)-1]]++
	}

	var normal float32
	best := -1
	for class, count := range counts {
		if count > best || (count == best && class < normal) {
			normal = class
			best = count
		}
	}
	return normal, len(counts)
}

// centroid computes the per-dimension mean of the rows, skipping NaN entries.
func centroid(rows [][]float32) []float64 {
	width := len(rows[0])
	sums := make([]float64, width)
	counts := make([]float64, width)
	for _, row := range rows {
		for i, v := range row {
			f := float64(v)
			if math.IsNaN(f) {
				continue
			}
			sums[i] += f
			counts[i]++
		}
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= counts[i]
		}
	}
	return sums
}

// distance is the dimension-normalized Euclidean distance to the centroid,
// skipping NaN entries so partially missing series still get a score.
func distance(row []float32, center []float64) float64 {
	var sum, n float64
	for i, v := range row {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		d := f - center[i]
		sum += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / n)
}

// band selects the candidates whose scores fall in the difficulty band. Bands
// degenerate to the full candidate set when there are too few candidates to
// compute meaningful quartiles, or when the band comes out empty.
func band(candidates [][]float32, scores []float64, difficulty Difficulty) [][]float32 {
	if difficulty == All || len(candidates) < 4 {
		return append([][]float32(nil), candidates...)
	}

	q25, err1 := stats.Percentile(stats.Float64Data(scores), 25)
	q50, err2 := stats.Percentile(stats.Float64Data(scores), 50)
	q75, err3 := stats.Percentile(stats.Float64Data(scores), 75)
	if err1 != nil || err2 != nil || err3 != nil {
		return append([][]float32(nil), candidates...)
	}

	var selected [][]float32
	for i, c := range candidates {
		s := scores[i]
		switch difficulty {
		case Hard:
			if s <= q25 {
				selected = append(selected, c)
			}
		case Medium:
			if s > q25 && s <= q50 {
				selected = append(selected, c)
			}
		case Easy:
			if s > q50 && s <= q75 {
				selected = append(selected, c)
			}
		case Simple:
			if s > q75 {
				selected = append(selected, c)
			}
		}
	}
	if len(selected) == 0 {
		return append([][]float32(nil), candidates...)
	}
	return selected
}
