package render

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestFirstImage(t *testing.T) {
	data, err := firstImage(response(genai.Text("here you go"), genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = firstImage(response(genai.Text("I cannot do that")))
	assert.ErrorContains(t, err, "I cannot do that")

	_, err = firstImage(&genai.GenerateContentResponse{})
	assert.ErrorContains(t, err, "no content generated")

	_, err = firstImage(nil)
	assert.Error(t, err)
}

func TestImagePartFormat(t *testing.T) {
	png := imagePart(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)).(genai.Blob)
	assert.Equal(t, "image/png", png.MIMEType)

	jpeg := imagePart([]byte("\xff\xd8\xff\xe0rest")).(genai.Blob)
	assert.Equal(t, "image/jpeg", jpeg.MIMEType)
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("googleapi: Error 429: Resource has been exhausted")))
	assert.True(t, isQuotaError(errors.New("Quota exceeded for model")))
	assert.False(t, isQuotaError(errors.New("invalid argument")))
}
