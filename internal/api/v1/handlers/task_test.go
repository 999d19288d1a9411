package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableDate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		set     bool
		want    string
		wantErr bool
	}{
		{"omitted", `{}`, false, "", false},
		{"null clears", `{"dueDate":null}`, true, "", false},
		{"empty clears", `{"dueDate":""}`, true, "", false},
		{"date only", `{"dueDate":"2026-03-04"}`, true, "2026-03-04T00:00:00Z", false},
		{"rfc3339", `{"dueDate":"2026-03-04T10:00:00+07:00"}`, true, "2026-03-04T03:00:00Z", false},
		{"garbage", `{"dueDate":"next week"}`, false, "", true},
		{"number", `{"dueDate":12}`, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTaskRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.set, req.DueDate.Set)
			if tt.want == "" {
				assert.Nil(t, req.DueDate.Value)
				return
			}
			require.NotNil(t, req.DueDate.Value)
			assert.Equal(t, tt.want, req.DueDate.Value.Format(time.RFC3339))
		})
	}
}

func TestUpdateTaskRequestInput(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"completed","priority":"low"}`), &req))

	in := req.input()
	require.NotNil(t, in.Status)
	require.NotNil(t, in.Priority)
	assert.Equal(t, "completed", string(*in.Status))
	assert.Equal(t, "low", string(*in.Priority))
	assert.Nil(t, in.Title)
	assert.False(t, in.DueDateSet)
}
