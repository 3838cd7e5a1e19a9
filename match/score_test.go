package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Run("equal inputs give 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("bohemian rhapsody", "bohemian rhapsody"))
	})

	t.Run("empty operand gives 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("", "queen"))
		assert.Equal(t, 0.0, Similarity("queen", ""))
	})

	t.Run("symmetric and bounded", func(t *testing.T) {
		pairs := [][2]string{
			{"night", "nacht"},
			{"queen", "queens"},
			{"bohemian rhapsody", "bohemian rapsody"},
			{"a", "b"},
			{"abba", "abab"},
		}
		for _, p := range pairs {
			ab := Similarity(p[0], p[1])
			ba := Similarity(p[1], p[0])
			assert.Equal(t, ab, ba, "similarity(%q,%q) not symmetric", p[0], p[1])
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	})

	t.Run("disjoint strings give 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity("xxxxx", "yyyyy"))
	})
}

func TestScoreAnswer(t *testing.T) {
	t.Run("both correct despite remaster suffix", func(t *testing.T) {
		score := ScoreAnswer("Bohemian Rhapsody", "queen", "Bohemian Rhapsody - Remastered 2011", []string{"Queen"})
		assert.Equal(t, ResultBoth, score.Result)
		assert.True(t, score.SongCorrect)
		assert.True(t, score.ArtistCorrect)
		assert.Equal(t, 1, PaceDelta(score.Result))
	})

	t.Run("neither correct", func(t *testing.T) {
		score := ScoreAnswer("xxxxx", "yyyyy", "Hello", []string{"Adele"})
		assert.Equal(t, ResultNone, score.Result)
		assert.False(t, score.SongCorrect)
		assert.False(t, score.ArtistCorrect)
		assert.Equal(t, -3, PaceDelta(score.Result))
	})

	t.Run("title only", func(t *testing.T) {
		score := ScoreAnswer("Hello", "nobody", "Hello", []string{"Adele"})
		assert.Equal(t, ResultOne, score.Result)
		assert.True(t, score.SongCorrect)
		assert.False(t, score.ArtistCorrect)
		assert.Equal(t, 0, PaceDelta(score.Result))
	})

	t.Run("any listed artist matching counts", func(t *testing.T) {
		score := ScoreAnswer("Under Pressure", "bowie", "Under Pressure", []string{"Queen", "David Bowie"})
		assert.Equal(t, ResultBoth, score.Result)
	})
}

func TestArtistMatches(t *testing.T) {
	t.Run("containment with sufficient ratio", func(t *testing.T) {
		assert.True(t, ArtistMatches("beatles", []string{"The Beatles"}))
	})

	t.Run("containment with insufficient ratio", func(t *testing.T) {
		assert.False(t, ArtistMatches("the", []string{"The Rolling Stones"}))
	})

	t.Run("short names need the higher threshold", func(t *testing.T) {
		assert.True(t, ArtistMatches("queen", []string{"Queen"}))
		assert.False(t, ArtistMatches("quxen", []string{"Queen"}))
	})
}

func TestClampPace(t *testing.T) {
	assert.Equal(t, 0, ClampPace(-1))
	assert.Equal(t, 0, ClampPace(2-3))
	assert.Equal(t, 10, ClampPace(11))
	assert.Equal(t, 7, ClampPace(7))
}

func TestEliminationThreshold(t *testing.T) {
	cases := []struct {
		round int
		want  int
	}{
		{1, 10},
		{6, 10},
		{7, 9},
		{12, 9},
		{13, 8},
		{60, 1},
		{600, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EliminationThreshold(c.round), "round %d", c.round)
	}
}
