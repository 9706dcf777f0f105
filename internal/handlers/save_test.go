package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"share-counts/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveHandler_Security(t *testing.T) {
	nonces := auth.NewNonceService("test-secret", time.Hour)
	handler := NewSaveHandler(nil, nonces)

	t.Run("bad nonce fails security", func(t *testing.T) {
		c, w := postFormContext(t, url.Values{
			"content_id": {"42"},
			"token":      {"garbage"},
		})
		auth.SetRole(c, auth.RoleManager)

		handler.Save(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Failed security.", decodeBody(t, w)["message"])
	})

	t.Run("refresh nonce does not open the save path", func(t *testing.T) {
		token, err := nonces.Create(auth.RefreshAction("42"))
		require.NoError(t, err)

		c, w := postFormContext(t, url.Values{
			"content_id": {"42"},
			"token":      {token},
		})
		auth.SetRole(c, auth.RoleManager)

		handler.Save(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Failed security.", decodeBody(t, w)["message"])
	})

	t.Run("save nonce without capability is denied", func(t *testing.T) {
		token, err := nonces.Create(auth.SaveAction)
		require.NoError(t, err)

		c, w := postFormContext(t, url.Values{
			"content_id": {"42"},
			"token":      {token},
		})

		handler.Save(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You do not have permission.", decodeBody(t, w)["message"])
	})
}
