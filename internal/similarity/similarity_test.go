package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sqlQuestion = `1. Pregunta: ¿Qué cláusula filtra filas después de agrupar?
A) WHERE
B) HAVING
C) ORDER BY
D) LIMIT
Respuesta correcta: B`

const sqlRephrased = `1. Pregunta: ¿Qué cláusula filtra las filas después de agrupar?
A) WHERE
B) HAVING
C) ORDER BY
D) LIMIT
Respuesta correcta: B`

const joinQuestion = `1. Pregunta: ¿Qué tipo de JOIN devuelve todas las filas de ambas tablas?
A) INNER JOIN
B) LEFT JOIN
C) FULL OUTER JOIN
D) CROSS JOIN
Respuesta correcta: C`

func TestCheck_EmptyPriorsAlwaysUnique(t *testing.T) {
	c := New(DefaultThreshold)
	for _, cand := range []string{"", "anything", sqlQuestion} {
		assert.True(t, c.IsUnique(cand, nil))
		assert.True(t, c.IsUnique(cand, []string{}))
	}
}

func TestCheck_ExactMatchIgnoresCaseAndSpacing(t *testing.T) {
	c := New(DefaultThreshold)
	v := c.Check("  ¿Qué es SQL?  ", []string{"otra", "¿qué   es sql?"})
	assert.False(t, v.Unique)
	assert.Equal(t, "exact", v.Reason)
	assert.Equal(t, 1, v.MatchIndex)
}

func TestCheck_IdenticalTextNeverUnique(t *testing.T) {
	c := New(0.99)
	for _, text := range []string{sqlQuestion, joinQuestion, "x", ""} {
		assert.False(t, c.IsUnique(text, []string{text}), "text %q", text)
	}
}

func TestCheck_NearDuplicateRejected(t *testing.T) {
	c := New(DefaultThreshold)
	v := c.Check(sqlRephrased, []string{joinQuestion, sqlQuestion})
	assert.False(t, v.Unique)
	assert.Equal(t, "jaccard", v.Reason)
	assert.Equal(t, 1, v.MatchIndex)
	assert.Greater(t, v.Score, DefaultThreshold)
}

func TestCheck_DistinctQuestionAccepted(t *testing.T) {
	c := New(DefaultThreshold)
	v := c.Check(joinQuestion, []string{sqlQuestion})
	assert.True(t, v.Unique)
	assert.Equal(t, -1, v.MatchIndex)
	assert.LessOrEqual(t, v.Score, DefaultThreshold)
}

func TestCheck_ThresholdIsStrict(t *testing.T) {
	// {uno dos} vs {uno dos tres} scores exactly 2/3.
	c := New(2.0 / 3.0)
	assert.True(t, c.IsUnique("uno dos", []string{"uno dos tres"}))
	c = New(0.6)
	assert.False(t, c.IsUnique("uno dos", []string{"uno dos tres"}))
}

func TestCheck_Symmetric(t *testing.T) {
	texts := []string{sqlQuestion, sqlRephrased, joinQuestion, "uno dos", "uno dos tres", ""}
	for _, threshold := range []float64{0.2, 0.5, 0.8} {
		c := New(threshold)
		for _, a := range texts {
			for _, b := range texts {
				assert.Equal(t, c.IsUnique(a, []string{b}), c.IsUnique(b, []string{a}), "a=%q b=%q", a, b)
				assert.InDelta(t, c.Similarity(a, b), c.Similarity(b, a), 1e-12)
			}
		}
	}
}

func TestNew_InvalidThresholdFallsBack(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(0).Threshold())
	assert.Equal(t, DefaultThreshold, New(-1).Threshold())
	assert.Equal(t, DefaultThreshold, New(1.5).Threshold())
	assert.Equal(t, 0.3, New(0.3).Threshold())
}

const sqlSwappedOptions = `1. Pregunta: ¿Qué cláusula ordena resultados después de agrupar?
A) WHERE
B) HAVING
C) JOIN
D) OFFSET
Respuesta correcta: B`

const sqlGroupQuestion = `1. Pregunta: ¿Qué cláusula filtra filas después de agrupar?
A) WHERE
B) HAVING
C) GROUP BY
D) LIMIT
Respuesta correcta: B`

func TestCheck_ScoresEveryWord(t *testing.T) {
	// 15 shared words out of 24, template words included.
	c := New(DefaultThreshold)
	assert.InDelta(t, 15.0/24.0, c.Similarity(sqlSwappedOptions, sqlGroupQuestion), 1e-12)

	v := c.Check(sqlSwappedOptions, []string{sqlGroupQuestion})
	assert.False(t, v.Unique)
	assert.Equal(t, "jaccard", v.Reason)
	assert.InDelta(t, 0.625, v.Score, 1e-12)
}

func TestWithIgnoredTokens(t *testing.T) {
	c := New(0.3)
	assert.False(t, c.IsUnique("Pregunta: alfa", []string{"Pregunta: beta"}))

	c = New(0.3, WithIgnoredTokens("PREGUNTA"))
	assert.True(t, c.IsUnique("Pregunta: alfa", []string{"Pregunta: beta"}))

	// Dropping the template words lowers the score of the same pair to 8/17.
	c = New(DefaultThreshold, WithIgnoredTokens("pregunta", "respuesta", "correcta", "a", "b", "c", "d"))
	assert.InDelta(t, 8.0/17.0, c.Similarity(sqlSwappedOptions, sqlGroupQuestion), 1e-12)
	assert.True(t, c.IsUnique(sqlSwappedOptions, []string{sqlGroupQuestion}))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"qué", "es", "sql", "2"}, Tokenize("¿Qué es SQL-2?"))
	assert.Empty(t, Tokenize("  ¿?  "))
}

func TestJaccard(t *testing.T) {
	set := func(ws ...string) map[string]struct{} { return toSet(ws) }
	assert.Equal(t, 0.0, Jaccard(set(), set()))
	assert.Equal(t, 1.0, Jaccard(set("a"), set("a")))
	assert.InDelta(t, 1.0/3.0, Jaccard(set("a", "b"), set("a", "c")), 1e-12)
	assert.Equal(t, 0.0, Jaccard(set("a"), set()))
}
