package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopezgez/group-habits-tracking/internal/apperror"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

func TestValidationService_Struct(t *testing.T) {
	v := NewValidationService(DefaultSecurityConfig())
	badURL := "not a url"
	goodURL := "https://img.example.com/run.jpg"

	tests := []struct {
		name    string
		req     interface{}
		wantMsg string
	}{
		{"valid habit", models.CreateHabitRequest{Name: "Run", Frequency: "weekly", TargetDays: 3}, ""},
		{"defaults left empty", models.CreateHabitRequest{Name: "Run"}, ""},
		{"bad frequency", models.CreateHabitRequest{Name: "Run", Frequency: "hourly"}, "frequency must be one of: daily, weekly"},
		{"target too high", models.CreateHabitRequest{Name: "Run", TargetDays: 8}, "targetDays must be at most 7"},
		{"bad photo url", models.CheckInRequest{PhotoURL: &badURL}, "photoUrl must be a valid URL"},
		{"good photo url", models.CheckInRequest{PhotoURL: &goodURL}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))
			assert.Equal(t, tt.wantMsg, apperror.MessageOf(err))
		})
	}
}

func TestValidationService_MessageLength(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxMessageLength = 5
	v := NewValidationService(config)

	assert.NoError(t, v.ValidateMessage("héllo"))

	err := v.ValidateMessage("hello!")
	assert.Equal(t, "content must be 5 characters or less", apperror.MessageOf(err))
}

func TestValidationService_NoteLength(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxNoteLength = 3
	v := NewValidationService(config)

	assert.NoError(t, v.ValidateNote(nil))
	assert.NoError(t, v.ValidateNote(strPtr("abc")))

	err := v.ValidateNote(strPtr("abcd"))
	assert.Equal(t, "note must be 3 characters or less", apperror.MessageOf(err))
}

func TestValidationService_Sanitize(t *testing.T) {
	v := NewValidationService(DefaultSecurityConfig())

	assert.Equal(t, "line one\nline\ttwo", v.SanitizeString("  line one\n\x00line\ttwo\x7f "))
	assert.Nil(t, v.SanitizeOptional(nil))
	assert.Equal(t, "ok", *v.SanitizeOptional(strPtr(" ok\x01")))
}

func strPtr(s string) *string { return &s }
