package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	tests := []struct {
		from, to Status
		want     []Status
		wantErr  bool
	}{
		{StatusAwaitingProof, StatusAwaitingProof, nil, false},
		{StatusPendingPaymentLink, StatusAwaitingProof, []Status{StatusAwaitingProof}, false},
		{StatusAwaitingProof, StatusPaid, []Status{StatusUnderReview, StatusPaid}, false},
		{StatusPendingPaymentLink, StatusRejected, []Status{StatusAwaitingProof, StatusUnderReview, StatusRejected}, false},
		{StatusUnderReview, StatusCanceled, []Status{StatusCanceled}, false},
		{StatusPaid, StatusCanceled, nil, true},
		{StatusUnderReview, StatusAwaitingProof, nil, true},
		{StatusCanceled, StatusPendingPaymentLink, nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := Path(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, s := range []Status{StatusPaid, StatusRejected, StatusCanceled} {
		assert.True(t, s.IsTerminal())
		assert.Empty(t, transitions[s])
	}
	for _, s := range Sweepable {
		assert.False(t, s.IsTerminal())
		assert.True(t, CanTransition(s, StatusCanceled))
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("under_review")
	assert.True(t, ok)
	assert.Equal(t, StatusUnderReview, s)
	_, ok = ParseStatus("shipped")
	assert.False(t, ok)
}
