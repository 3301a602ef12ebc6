package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "letters",
			input: "Ah Ks Qd Jc",
			expected: []Card{
				{Suit: Hearts, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{
			name:  "ten both ways",
			input: "10h,Td",
			expected: []Card{
				{Suit: Hearts, Rank: Ten},
				{Suit: Diamonds, Rank: Ten},
			},
		},
		{
			name:  "glyphs",
			input: "A♠ 7♥",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: Seven},
			},
		},
		{
			name:  "case insensitive",
			input: "aS kH",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{name: "invalid rank", input: "Xs", wantErr: true},
		{name: "invalid suit", input: "Ax", wantErr: true},
		{name: "missing suit", input: "A", wantErr: true},
		{name: "empty string", input: "", expected: []Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMustParseCardsPanics(t *testing.T) {
	assert.Equal(t, []Card{{Suit: Spades, Rank: Ace}}, MustParseCards("As"))
	assert.Panics(t, func() { MustParseCards("invalid") })
}

func TestBaseValue(t *testing.T) {
	want := map[Rank]int{
		Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
		Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
	}
	for rank, value := range want {
		for _, suit := range Suits {
			assert.Equal(t, value, NewCard(suit, rank).BaseValue(), "%s", NewCard(suit, rank))
		}
	}
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", NewCard(Spades, Ace).String())
	assert.Equal(t, "10♥", NewCard(Hearts, Ten).String())
	assert.Equal(t, "hearts", Hearts.String())
	assert.True(t, NewCard(Diamonds, Two).IsRed())
	assert.False(t, NewCard(Clubs, Two).IsRed())
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(NewCard(Hearts, Ace))
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"hearts","rank":"A","value":11}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"clubs","rank":"10","value":0}`), &c))
	assert.Equal(t, NewCard(Clubs, Ten), c)

	assert.Error(t, json.Unmarshal([]byte(`{"suit":"cups","rank":"10"}`), &c))
}
