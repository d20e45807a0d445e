package oauth2

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = ParseFormat("xml")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, format)

	format, err = ParseFormat("form")
	require.NoError(t, err)
	assert.Equal(t, FormatForm, format)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	res := NewTokenResponse("AT1", 3600)
	res.Scope = Scope{"foo"}

	contentType, body, err := Render(res, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", contentType)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "AT1", decoded["access_token"])
	assert.Equal(t, float64(3600), decoded["expires_in"])
	assert.Equal(t, "Bearer", decoded["token_type"])
	assert.Equal(t, "foo", decoded["scope"])
}

func TestRenderForm(t *testing.T) {
	res := NewTokenResponse("AT1", 3600)

	contentType, body, err := Render(res, FormatForm)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)

	values, err := url.ParseQuery(string(body))
	require.NoError(t, err)
	assert.Equal(t, "AT1", values.Get("access_token"))
	assert.Equal(t, "3600", values.Get("expires_in"))
	assert.Equal(t, "Bearer", values.Get("token_type"))
}

func TestRenderXML(t *testing.T) {
	res := NewTokenResponse("AT1", 3600)

	contentType, body, err := Render(res, FormatXML)
	require.NoError(t, err)
	assert.Equal(t, "application/xml; charset=utf-8", contentType)
	assert.Contains(t, string(body), "<access-token>AT1</access-token>")
	assert.Contains(t, string(body), "<expires-in>3600</expires-in>")
}

func TestRenderRoundTrip(t *testing.T) {
	res := NewTokenResponse("AT1", 3600)
	res.RefreshToken = "RT1"
	res.Scope = Scope{"foo", "bar"}

	want := map[string]string{
		"token_type":    "Bearer",
		"access_token":  "AT1",
		"expires_in":    "3600",
		"refresh_token": "RT1",
		"scope":         "foo bar",
	}

	for _, format := range []Format{FormatJSON, FormatXML, FormatForm} {
		_, body, err := Render(res, format)
		require.NoError(t, err)
		assert.NotEmpty(t, body)

		for key, value := range want {
			switch format {
			case FormatJSON:
				var decoded map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &decoded))
				assert.Equal(t, value, scalarString(decoded[key]))
			case FormatForm:
				values, err := url.ParseQuery(string(body))
				require.NoError(t, err)
				assert.Equal(t, value, values.Get(key))
			case FormatXML:
				tag := xmlSafeTag(key)
				assert.Contains(t, string(body), "<"+tag+">"+value+"</"+tag+">")
			}
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, _, err := Render(NewTokenResponse("AT1", 3600), Format("yaml"))
	assert.Error(t, err)
}
