package tryon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestSelectorDropClearsPick(t *testing.T) {
	var s BaseImageSelector
	s.Pick("old.png")
	s.Drop(UploadedImage{Body: bytes.NewReader(pngBytes), Filename: "me.png"})

	src := s.Source()
	assert.Empty(t, sourceProblem(src))
	assert.Equal(t, "me.png", src.(UploadedImage).Filename)

	s.SetMode(ModeSelect)
	assert.Equal(t, PriorImage{}, s.Source())
	assert.Equal(t, msgSelectImage, sourceProblem(s.Source()))
}

func TestSelectorPickClearsDrop(t *testing.T) {
	var s BaseImageSelector
	s.Drop(UploadedImage{Body: bytes.NewReader(pngBytes)})
	s.Pick("old.png")

	src := s.Source()
	assert.Empty(t, sourceProblem(src))
	assert.Equal(t, PriorImage{Name: "old.png"}, src)

	s.SetMode(ModeUpload)
	assert.Equal(t, UploadedImage{}, s.Source())
	assert.Equal(t, msgUploadImage, sourceProblem(s.Source()))
}

func TestSelectorEmptyModes(t *testing.T) {
	var s BaseImageSelector
	assert.Equal(t, UploadedImage{}, s.Source())
	assert.Equal(t, msgUploadImage, sourceProblem(s.Source()))

	s.SetMode(ModeSelect)
	assert.Equal(t, PriorImage{}, s.Source())
	assert.Equal(t, msgSelectImage, sourceProblem(s.Source()))

	assert.Equal(t, msgUploadImage, sourceProblem(nil))
}

func TestSelectorRejectsPathInName(t *testing.T) {
	for _, name := range []string{"../other/base_model/x", "a/b", "..", "."} {
		var s BaseImageSelector
		s.Pick(name)
		assert.Equal(t, msgInvalidName, sourceProblem(s.Source()), name)
	}
}

func TestSubmitReportsSelectorProblem(t *testing.T) {
	svc := NewService(newFakeStorage(), newFakeRecords(), &fakeNotifier{}, Config{})

	var s BaseImageSelector
	s.Pick("a/b")
	_, err := svc.Submit(t.Context(), Submission{
		UserID:   "u1",
		Image:    s.Source(),
		Garments: GarmentSelection{Outfit: Separates{Top: "https://example.com/shirt"}},
	})
	assert.Equal(t, map[string]string{"image": msgInvalidName}, fieldErrors(t, err))
}
