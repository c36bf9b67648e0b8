package tryon

import (
	"io"

	"github.com/raushankrgupta/fitting-room/storage"
)

const (
	msgUploadImage = "Please upload an image"
	msgSelectImage = "Please select an image from previous uploads"
	msgInvalidName = "Selected image name is invalid"
)

// ImageSource is where the base photo of a submission comes from:
// either an UploadedImage or a PriorImage.
type ImageSource interface {
	isImageSource()
}

// UploadedImage is a new file supplied with the submission.
type UploadedImage struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

// PriorImage names a file previously stored under the user's base model prefix.
type PriorImage struct {
	Name string
}

func (UploadedImage) isImageSource() {}
func (PriorImage) isImageSource()    {}

type SourceMode int

const (
	ModeUpload SourceMode = iota
	ModeSelect
)

// BaseImageSelector tracks the two mutually exclusive ways of choosing a base photo.
// Dropping a file clears any pick and picking clears any dropped file.
type BaseImageSelector struct {
	mode    SourceMode
	dropped *UploadedImage
	picked  string
}

func (s *BaseImageSelector) SetMode(mode SourceMode) {
	s.mode = mode
}

func (s *BaseImageSelector) Drop(img UploadedImage) {
	s.mode = ModeUpload
	s.dropped = &img
	s.picked = ""
}

func (s *BaseImageSelector) Pick(name string) {
	s.mode = ModeSelect
	s.picked = name
	s.dropped = nil
}

// Source returns the choice of the current mode as is, possibly empty.
func (s *BaseImageSelector) Source() ImageSource {
	if s.mode == ModeSelect {
		return PriorImage{Name: s.picked}
	}
	if s.dropped == nil {
		return UploadedImage{}
	}
	return *s.dropped
}

// sourceProblem returns the "image" field message for src, or "" when src is usable.
func sourceProblem(src ImageSource) string {
	switch src := src.(type) {
	case PriorImage:
		if src.Name == "" {
			return msgSelectImage
		}
		if !storage.ValidName(src.Name) {
			return msgInvalidName
		}
		return ""
	case UploadedImage:
		if src.Body == nil {
			return msgUploadImage
		}
		return ""
	}
	return msgUploadImage
}
