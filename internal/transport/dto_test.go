package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBody_KeepsOnlyStrings(t *testing.T) {
	t.Parallel()

	var body RegisterBody
	err := json.Unmarshal([]byte(`{"username":123,"email":"a@b.co","password":["x"]}`), &body)
	require.NoError(t, err)

	assert.Equal(t, RegisterRequest{Email: "a@b.co"}, body.Request())
}
