package engine

import (
	"bytes"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtheory/domain/core"
	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/testkit"
)

func newCrossedSession(t *testing.T) *Session {
	t.Helper()
	table, algebra := testkit.PersonByItem()
	session, err := NewSession(table, algebra, nil)
	require.NoError(t, err)
	return session
}

func TestNewSession_RejectsBadInputs(t *testing.T) {
	table, algebra := testkit.PersonByItem()

	badAlgebra := algebra.Clone()
	delete(badAlgebra, gtheory.MeanComponent)
	_, err := NewSession(table, badAlgebra, nil)
	assert.Error(t, err)

	other := dataset.NewTable([]string{"person"})
	require.NoError(t, other.Append([]string{"1"}, 1.0))
	_, err = NewSession(other, algebra, nil)
	assert.Error(t, err, "table is missing the item facet")

	empty := dataset.NewTable([]string{"person", "item"})
	_, err = NewSession(empty, algebra, nil)
	assert.Error(t, err)
}

func TestNewSession_DropsMissingRowsWithWarning(t *testing.T) {
	_, algebra := testkit.PersonByItem()
	table := dataset.NewTable([]string{"person", "item"})
	for p := 1; p <= 2; p++ {
		for i := 1; i <= 2; i++ {
			score := float64(p * i)
			if p == 2 && i == 2 {
				score = math.NaN()
			}
			require.NoError(t, table.Append([]string{strconv.Itoa(p), strconv.Itoa(i)}, score))
		}
	}

	session, err := NewSession(table, algebra, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, session.Data().NumRows())
	warnings := session.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, gtheory.WarningMissingData, warnings[0].Code)
}

func TestSession_OperationsRequireVarianceEstimation(t *testing.T) {
	session := newCrossedSession(t)

	_, err := session.GCoefficients(nil)
	assert.True(t, core.IsSequenceError(err), "got %v", err)

	_, err = session.DStudy(&gtheory.DStudyRequest{
		Levels: map[string][]int{"person": {10}, "item": {5}},
	})
	assert.True(t, core.IsSequenceError(err), "got %v", err)

	_, err = session.ConfidenceIntervals(nil)
	assert.True(t, core.IsSequenceError(err), "got %v", err)
}

func TestSession_VarianceOverridesSkipEstimation(t *testing.T) {
	session := newCrossedSession(t)

	req := &gtheory.GCoefficientRequest{
		VarianceOverrides: map[string]float64{
			"person":        0.5,
			"item":          0.1,
			"person x item": 0.3,
		},
	}
	coeffs, err := session.GCoefficients(req)
	require.NoError(t, err)
	_, ok := coeffs.Row("person")
	assert.True(t, ok)
}

func TestSession_FullPipeline(t *testing.T) {
	session := newCrossedSession(t)

	anova, err := session.CalculateAnova()
	require.NoError(t, err)
	assert.Same(t, anova, session.AnovaTable())

	coeffs, err := session.GCoefficients(nil)
	require.NoError(t, err)
	assert.Same(t, coeffs, session.GCoefficientTable())

	dstudy, err := session.DStudy(&gtheory.DStudyRequest{
		Levels: map[string][]int{"person": {10}, "item": {5, 10}},
	})
	require.NoError(t, err)
	assert.Same(t, dstudy, session.DStudyResult())
	assert.Len(t, dstudy.Scenarios, 2)

	intervals, err := session.ConfidenceIntervals(nil)
	require.NoError(t, err)
	assert.Contains(t, intervals, "person")
}

func TestSession_RecomputeReplacesDerivedTables(t *testing.T) {
	session := newCrossedSession(t)

	_, err := session.CalculateAnova()
	require.NoError(t, err)
	_, err = session.GCoefficients(nil)
	require.NoError(t, err)
	require.NotNil(t, session.GCoefficientTable())

	second, err := session.CalculateAnova()
	require.NoError(t, err)
	assert.Nil(t, session.GCoefficientTable(), "derived tables reset on re-estimation")
	assert.Equal(t, second, session.AnovaTable())
}

func TestSession_SummariesRequirePriorSteps(t *testing.T) {
	session := newCrossedSession(t)
	var buf bytes.Buffer

	assert.True(t, core.IsSequenceError(session.WriteAnovaSummary(&buf)))
	assert.True(t, core.IsSequenceError(session.WriteGCoefficientSummary(&buf)))
	assert.True(t, core.IsSequenceError(session.WriteDStudySummary(&buf)))
	assert.True(t, core.IsSequenceError(session.WriteIntervalSummary(&buf)))
}

func TestSession_SummariesRenderTables(t *testing.T) {
	session := newCrossedSession(t)
	_, err := session.CalculateAnova()
	require.NoError(t, err)
	_, err = session.GCoefficients(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, session.WriteAnovaSummary(&buf))
	require.NoError(t, session.WriteGCoefficientSummary(&buf))

	out := buf.String()
	assert.Contains(t, out, "ANOVA Table")
	assert.Contains(t, out, "G Coefficients")
	assert.Contains(t, out, "person x item")
}
