package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdateFromForm_Partial(t *testing.T) {
	upd, verr := ProfileUpdateFromForm(url.Values{"bio": {"  hi  "}}, true)
	require.False(t, verr.HasErrors())

	require.NotNil(t, upd.Bio)
	assert.Equal(t, "hi", *upd.Bio)
	assert.Nil(t, upd.DisplayName)
	assert.Nil(t, upd.EmailNotifications)
	assert.False(t, upd.GenresSet)
	assert.False(t, upd.IsEmpty())
}

func TestProfileUpdateFromForm_EmptyPartial(t *testing.T) {
	upd, verr := ProfileUpdateFromForm(url.Values{"unknown": {"x"}}, true)
	require.False(t, verr.HasErrors())
	assert.True(t, upd.IsEmpty())
}

func TestProfileUpdateFromForm_Full(t *testing.T) {
	upd, verr := ProfileUpdateFromForm(url.Values{}, false)
	require.False(t, verr.HasErrors())

	require.NotNil(t, upd.DisplayName)
	require.NotNil(t, upd.EmailNotifications)
	assert.False(t, *upd.EmailNotifications)
	assert.True(t, upd.GenresSet)
	assert.Empty(t, upd.FavoriteGenres)
}

func TestProfileUpdateFromForm_Booleans(t *testing.T) {
	tests := []struct {
		raw   string
		want  bool
		valid bool
	}{
		{"true", true, true},
		{"on", true, true},
		{"1", true, true},
		{"False", false, true},
		{"0", false, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			upd, verr := ProfileUpdateFromForm(url.Values{"email_notifications": {tt.raw}}, true)
			if !tt.valid {
				require.True(t, verr.HasErrors())
				assert.Contains(t, verr.Fields, "email_notifications")
				return
			}
			require.False(t, verr.HasErrors())
			require.NotNil(t, upd.EmailNotifications)
			assert.Equal(t, tt.want, *upd.EmailNotifications)
		})
	}
}

func TestParseGenres(t *testing.T) {
	assert.Equal(t, []string{"ambient", "drum and bass"}, parseGenres([]string{" ambient , drum and bass ,"}))
	assert.Equal(t, []string{"house", "techno"}, parseGenres([]string{"house", " techno "}))
	assert.Empty(t, parseGenres([]string{""}))
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, isWebURL("https://example.com/a"))
	assert.True(t, isWebURL("http://localhost:8080"))
	assert.False(t, isWebURL("ftp://example.com"))
	assert.False(t, isWebURL("example.com"))
	assert.False(t, isWebURL("https://"))
}

func TestValidationError_Error(t *testing.T) {
	verr := &ValidationError{}
	assert.False(t, verr.HasErrors())
	assert.NoError(t, verr.errOrNil())

	verr.Add("website", "Enter a valid URL.")
	verr.Add("bio", "Too long.")
	assert.Equal(t, "validation failed: bio, website", verr.Error())
	assert.Error(t, verr.errOrNil())
}

func TestProfileUpdate_Submitted(t *testing.T) {
	upd, _ := ProfileUpdateFromForm(url.Values{"website": {"https://x.example"}, "favorite_genres": {"dub"}}, true)
	assert.ElementsMatch(t, []string{"Website", "FavoriteGenres"}, upd.submitted())

	full, _ := ProfileUpdateFromForm(url.Values{}, false)
	assert.Len(t, full.submitted(), 8)

	assert.Empty(t, ProfileUpdate{}.submitted())
}
