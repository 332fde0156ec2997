package models_test

import (
	"encoding/json"
	"testing"

	"fdly/internal/models"

	"github.com/stretchr/testify/require"
)

func TestActionString(t *testing.T) {
	require.Equal(t, "markAsRead", models.ActionRead.String())
	require.Equal(t, "undoMarkAsRead", models.ActionUnread.String())
	require.Equal(t, "", models.Action(42).String())
}

func TestParseAction(t *testing.T) {
	testCases := []struct {
		in       string
		expected models.Action
		wantErr  bool
	}{
		{in: "read", expected: models.ActionRead},
		{in: "markAsRead", expected: models.ActionRead},
		{in: "unread", expected: models.ActionUnread},
		{in: "undoMarkAsRead", expected: models.ActionUnread},
		{in: "starred", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := models.ParseAction(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestActionJSON(t *testing.T) {
	payload := struct {
		Action models.Action `json:"action"`
	}{Action: models.ActionUnread}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"action":"undoMarkAsRead"}`, string(data))

	payload.Action = models.ActionRead
	require.NoError(t, json.Unmarshal([]byte(`{"action":"unread"}`), &payload))
	require.Equal(t, models.ActionUnread, payload.Action)
}

func TestEntryEqual(t *testing.T) {
	a := models.Entry{ID: "entry/1", Title: "first"}
	b := models.Entry{ID: "entry/1", Title: "edited"}
	c := models.Entry{ID: "entry/2", Title: "first"}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
