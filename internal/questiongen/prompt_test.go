package questiongen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserMessage_NoPriors(t *testing.T) {
	msg := buildUserMessage(Input{Theme: "Redes", Level: "avanzado"}, DefaultConfig())
	assert.Contains(t, msg, "Temática: Redes\nNivel: avanzado\n")
	assert.Contains(t, msg, "Preguntas ya formuladas:\nNinguna")
	assert.NotContains(t, msg, "Intento")
}

func TestBuildUserMessage_RetryHint(t *testing.T) {
	msg := buildUserMessage(Input{Theme: "Redes", Level: "avanzado", Attempt: 2}, DefaultConfig())
	assert.Contains(t, msg, "Intento 3")
}

func TestBuildDedup_KeepsMostRecent(t *testing.T) {
	var priors []string
	for i := 1; i <= 12; i++ {
		priors = append(priors, fmt.Sprintf("pregunta %d", i))
	}

	got := buildDedup(priors, 10)
	assert.NotContains(t, got, "pregunta 1\n")
	assert.NotContains(t, got, "pregunta 2\n")
	assert.Contains(t, got, "pregunta 3")
	assert.True(t, strings.HasSuffix(got, "pregunta 12"))
	assert.Equal(t, 10, strings.Count(got, "--- "))
}

func TestBuildDedup_ZeroMeansAll(t *testing.T) {
	got := buildDedup([]string{"a", "b", "c"}, 0)
	assert.Equal(t, 3, strings.Count(got, "--- "))
}

func TestSchedule(t *testing.T) {
	s := DefaultSchedule()
	prev := -1.0
	for attempt := range 20 {
		temp := s.At(attempt)
		assert.GreaterOrEqual(t, temp, prev, "non-decreasing at attempt %d", attempt)
		assert.LessOrEqual(t, temp, s.Max)
		prev = temp
	}
	assert.Equal(t, 0.7, s.At(-3))
	assert.Equal(t, 1.2, s.At(100))
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, DefaultSchedule().Validate())
	assert.Error(t, Schedule{Base: 0.7, Step: -0.1, Max: 1}.Validate())
	assert.Error(t, Schedule{Base: 1.5, Step: 0.1, Max: 1}.Validate())
	assert.Error(t, Schedule{Base: -1, Step: 0.1, Max: 1}.Validate())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxTokens = -1
	assert.Error(t, cfg.Validate())
}
