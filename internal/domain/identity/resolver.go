package identity

import (
	"sort"

	"github.com/google/uuid"
)

// tieTolerance is the score gap within which the newer record wins. The
// extra epsilon keeps pairs exactly 0.01 apart inside the band despite
// floating point error.
const tieTolerance = 0.01 + 1e-9

// Match is the candidate chosen by ResolveMatch.
type Match struct {
	Patient    *Patient
	Code       PatientCode
	Similarity float64
	// Alternates holds every other candidate that passed the threshold,
	// best first.
	Alternates []CandidateScore
}

// Ambiguous reports whether more than one candidate passed the threshold.
func (m *Match) Ambiguous() bool {
	return len(m.Alternates) > 0
}

type scored struct {
	candidate  Candidate
	similarity float64
}

// ResolveMatch scores candidates against rawName and returns the best one at
// or above thresholdPercent, or nil. Among candidates within tieTolerance of
// the top score the newest record wins.
func ResolveMatch(candidates []Candidate, rawName string, clinicID uuid.UUID, thresholdPercent int) *Match {
	if len(candidates) == 0 {
		return nil
	}
	target := NormalizeName(rawName)
	threshold := float64(thresholdPercent) / 100

	var passing []scored
	for _, c := range candidates {
		if c.Patient == nil {
			continue
		}
		sim := Similarity(target, NormalizeName(c.Patient.Name))
		if sim >= threshold {
			passing = append(passing, scored{candidate: c, similarity: sim})
		}
	}
	if len(passing) == 0 {
		return nil
	}

	rank(passing)

	best := passing[0]
	code, _ := best.candidate.Patient.CodeForClinic(clinicID)
	m := &Match{
		Patient:    best.candidate.Patient,
		Code:       code,
		Similarity: best.similarity,
	}
	for _, s := range passing[1:] {
		m.Alternates = append(m.Alternates, CandidateScore{
			PatientID:  s.candidate.Patient.ID,
			Similarity: s.similarity,
			CreatedAt:  s.candidate.Patient.CreatedAt,
		})
	}
	return m
}

// rank orders passing by score, best first, then moves the newest candidate
// within tieTolerance of the top score to the front. The band is anchored at
// the top score so chains of close scores cannot pull in lower candidates.
func rank(passing []scored) {
	sort.SliceStable(passing, func(i, j int) bool {
		a, b := passing[i], passing[j]
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		return a.candidate.Patient.CreatedAt.After(b.candidate.Patient.CreatedAt)
	})

	top := passing[0].similarity
	win := 0
	for i := 1; i < len(passing) && top-passing[i].similarity <= tieTolerance; i++ {
		if passing[i].candidate.Patient.CreatedAt.After(passing[win].candidate.Patient.CreatedAt) {
			win = i
		}
	}
	if win == 0 {
		return
	}
	best := passing[win]
	copy(passing[1:win+1], passing[:win])
	passing[0] = best
}
